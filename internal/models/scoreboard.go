package models

import (
	"time"

	"github.com/google/uuid"
)

// Scoreboard is the live score of a game.
type Scoreboard struct {
	GameID    uuid.UUID `json:"game_id"`
	Home      int       `json:"home"`
	Away      int       `json:"away"`
	HomeSets  int       `json:"home_sets"`
	AwaySets  int       `json:"away_sets"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreboardUpdate is a scoreboard state published between server instances.
// Origin identifies the publishing instance so it can skip its own messages.
type ScoreboardUpdate struct {
	Origin string     `json:"origin"`
	Board  Scoreboard `json:"board"`
}
