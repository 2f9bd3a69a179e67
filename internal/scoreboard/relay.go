package scoreboard

import (
	"context"

	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
)

// Relay forwards updates published by other server instances into the local
// hub.
type Relay struct {
	hub        *Hub
	instanceID string
	log        *logrus.Logger
}

func NewRelay(hub *Hub, instanceID string, log *logrus.Logger) *Relay {
	return &Relay{hub: hub, instanceID: instanceID, log: log}
}

// Run consumes updates until ctx is done or updates is closed. Updates that
// carry this instance's ID were already broadcast locally and are skipped.
func (r *Relay) Run(ctx context.Context, updates <-chan models.ScoreboardUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Origin == r.instanceID {
				continue
			}
			r.log.WithFields(logrus.Fields{
				"game_id": u.Board.GameID,
				"origin":  u.Origin,
			}).Debug("relaying scoreboard update")
			r.hub.Broadcast(u.Board)
		}
	}
}
