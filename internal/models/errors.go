package models

import "errors"

// ErrValidation is wrapped by every Validate method so callers can map bad
// input to a client error without matching on messages.
var ErrValidation = errors.New("validation failed")
