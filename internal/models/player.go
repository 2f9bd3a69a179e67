package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a club member (or a synthetic visitor) as seen by the draw and the
// rosters. Rating is derived from Attributes; see internal/rating.
type Player struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	IsAdmin   bool      `json:"is_admin"`
	IsMonthly bool      `json:"is_monthly"`
	IsActive  bool      `json:"is_active"`

	// IsVisitor marks zero-rated placeholders added for a single draw. Visitors
	// never exist in the store.
	IsVisitor bool `json:"is_visitor,omitempty"`
}

// Attributes are the per-skill grades (0..10) an admin assigns to a player.
type Attributes struct {
	Serve   int `json:"serve"`
	Pass    int `json:"pass"`
	Attack  int `json:"attack"`
	Block   int `json:"block"`
	Defense int `json:"defense"`
	Setting int `json:"setting"`
}

// Values returns the attributes in a fixed order.
func (a Attributes) Values() []int {
	return []int{a.Serve, a.Pass, a.Attack, a.Block, a.Defense, a.Setting}
}

// RatingChange is one row of a player's rating history.
type RatingChange struct {
	PlayerID  uuid.UUID `json:"player_id"`
	OldRating float64   `json:"old_rating"`
	NewRating float64   `json:"new_rating"`
	ChangedBy uuid.UUID `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
