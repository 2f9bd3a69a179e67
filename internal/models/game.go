package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GameKind string

const (
	KindGame  GameKind = "game"
	KindEvent GameKind = "event"
)

type GameStatus string

const (
	StatusScheduled GameStatus = "scheduled"
	StatusFinished  GameStatus = "finished"
	StatusCancelled GameStatus = "cancelled"
)

// Game is a scheduled match or club event that players confirm attendance for.
type Game struct {
	ID         uuid.UUID  `json:"id"`
	Kind       GameKind   `json:"kind"`
	Title      string     `json:"title"`
	Location   string     `json:"location"`
	StartsAt   time.Time  `json:"starts_at"`
	MaxPlayers int        `json:"max_players"` // 0 => unlimited
	Status     GameStatus `json:"status"`
	CreatedBy  uuid.UUID  `json:"created_by"`
}

// Open reports whether confirmations are still accepted.
func (g Game) Open() bool {
	return g.Status == StatusScheduled
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	switch g.Kind {
	case KindGame, KindEvent:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, g.Kind)
	}
	switch g.Status {
	case StatusScheduled, StatusFinished, StatusCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, g.Status)
	}
	if g.MaxPlayers < 0 {
		return fmt.Errorf("%w: max_players must not be negative", ErrValidation)
	}
	if g.StartsAt.IsZero() {
		return fmt.Errorf("%w: starts_at is required", ErrValidation)
	}
	return nil
}

// Confirmation records a player's intent to attend a game.
type Confirmation struct {
	GameID      uuid.UUID `json:"game_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
