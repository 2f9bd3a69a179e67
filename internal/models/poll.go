package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Poll is a club question with a fixed list of options.
type Poll struct {
	ID        uuid.UUID  `json:"id"`
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	Multiple  bool       `json:"multiple"`
	ClosesAt  *time.Time `json:"closes_at,omitempty"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// ClosedAt reports whether the poll no longer accepts ballots at t.
func (p Poll) ClosedAt(t time.Time) bool {
	return p.ClosesAt != nil && !t.Before(*p.ClosesAt)
}

func (p Poll) Validate() error {
	if strings.TrimSpace(p.Question) == "" {
		return fmt.Errorf("%w: question is required", ErrValidation)
	}
	if len(p.Options) < 2 {
		return fmt.Errorf("%w: a poll needs at least two options", ErrValidation)
	}
	seen := make(map[string]bool, len(p.Options))
	for _, o := range p.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return fmt.Errorf("%w: empty option", ErrValidation)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate option %q", ErrValidation, o)
		}
		seen[key] = true
	}
	return nil
}

// Ballot is one voter's current choice(s) in a poll, as option indexes.
type Ballot struct {
	PollID  uuid.UUID `json:"poll_id"`
	VoterID uuid.UUID `json:"voter_id"`
	Choices []int     `json:"choices"`
	CastAt  time.Time `json:"cast_at"`
}

// MVPVote is one vote for the best player of a game.
type MVPVote struct {
	GameID      uuid.UUID `json:"game_id"`
	VoterID     uuid.UUID `json:"voter_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}
