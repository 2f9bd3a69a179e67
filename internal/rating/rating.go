// Package rating derives a player's skill rating from the grades an admin
// assigns to each volleyball fundamental.
package rating

import (
	"errors"
	"fmt"
	"math"

	"github.com/jason-s-yu/volei/internal/models"
)

const (
	// MinAttribute and MaxAttribute bound every sub-attribute grade.
	MinAttribute = 0
	MaxAttribute = 10
)

// ErrAttributeRange is returned when a grade falls outside [MinAttribute, MaxAttribute].
var ErrAttributeRange = errors.New("attribute out of range")

// Validate checks that every grade is within range.
func Validate(a models.Attributes) error {
	names := []string{"serve", "pass", "attack", "block", "defense", "setting"}
	for i, v := range a.Values() {
		if v < MinAttribute || v > MaxAttribute {
			return fmt.Errorf("%w: %s=%d (want %d..%d)", ErrAttributeRange, names[i], v, MinAttribute, MaxAttribute)
		}
	}
	return nil
}

// FromAttributes is the arithmetic mean of the six grades, rounded to two
// decimals so stored ratings compare cleanly.
func FromAttributes(a models.Attributes) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	vals := a.Values()
	var sum int
	for _, v := range vals {
		sum += v
	}
	return Round(float64(sum) / float64(len(vals))), nil
}

// Round rounds to two decimal places.
func Round(r float64) float64 {
	return math.Round(r*100) / 100
}
