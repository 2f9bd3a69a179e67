package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/draw"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/poll"
	"github.com/jason-s-yu/volei/internal/rating"
	"github.com/jason-s-yu/volei/internal/schedule"
	"github.com/jason-s-yu/volei/internal/scoreboard"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// requireSession returns the caller's session. Routes are mounted behind the
// authentication middleware, so a missing session is a wiring bug.
func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := auth.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return sess, ok
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrConflict),
		errors.Is(err, database.ErrGameFull),
		errors.Is(err, database.ErrGameClosed),
		errors.Is(err, poll.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, database.ErrNoPlayer),
		errors.Is(err, poll.ErrSelfVote),
		errors.Is(err, poll.ErrNotConfirmed):
		return http.StatusForbidden
	case errors.Is(err, rating.ErrAttributeRange),
		errors.Is(err, poll.ErrInvalidChoice),
		errors.Is(err, scoreboard.ErrUnknownSide),
		errors.Is(err, scoreboard.ErrUnknownCommand),
		errors.Is(err, scoreboard.ErrInvalidDelta),
		errors.Is(err, scoreboard.ErrTiedSet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, draw.ErrInvalidConfig),
		errors.Is(err, schedule.ErrUnrecognized),
		errors.Is(err, schedule.ErrInPast):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError answers with the status matching err. Internal errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error(msg)
		http.Error(w, "internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}
