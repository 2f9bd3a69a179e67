package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is pushed to the notifications channel for delivery to members.
type Notification struct {
	Kind      string    `json:"kind"`
	GameID    uuid.UUID `json:"game_id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Confirmed int       `json:"confirmed"`
	SentAt    time.Time `json:"sent_at"`
}
