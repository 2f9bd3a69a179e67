package handlers

import (
	"context"
	"net/http"

	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/scoreboard"
	"github.com/sirupsen/logrus"
)

// GetScoreboardHandler returns the current score of a game.
func GetScoreboardHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.Store.GetGame(r.Context(), gameID); err != nil {
			writeError(w, s.Logger, err, "failed to load game")
			return
		}
		board, err := s.Store.GetScoreboard(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load scoreboard")
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

// UpdateScoreboardHandler applies one scorekeeper command, stores the result
// and pushes it to live subscribers on every instance.
func UpdateScoreboardHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var cmd scoreboard.Command
		if err := decodeJSON(w, r, &cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		board, err := s.Store.UpdateScoreboard(r.Context(), gameID, func(current models.Scoreboard) (models.Scoreboard, error) {
			return scoreboard.Apply(current, cmd, s.Now().UTC())
		})
		if err != nil {
			writeError(w, s.Logger, err, "failed to update scoreboard")
			return
		}

		s.broadcastScoreboard(r.Context(), board)
		writeJSON(w, http.StatusOK, board)
	}
}

// broadcastScoreboard delivers board to local subscribers and publishes it for
// the other instances.
func (s *ClubServer) broadcastScoreboard(ctx context.Context, board models.Scoreboard) {
	s.Hub.Broadcast(board)
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishScoreboard(ctx, models.ScoreboardUpdate{Origin: s.InstanceID, Board: board})
	if err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"game_id": board.GameID,
		}).Warn("failed to publish scoreboard update")
	}
}
