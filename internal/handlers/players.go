package handlers

import (
	"fmt"
	"net/http"

	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/rating"
)

// ListPlayersHandler returns the active roster. ?all=true includes inactive
// members.
func ListPlayersHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("all") != "true"
		players, err := s.Store.ListPlayers(r.Context(), activeOnly)
		if err != nil {
			writeError(w, s.Logger, err, "failed to list players")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

// SetAttributesHandler stores new skill grades for a player and answers with
// the resulting rating change.
func SetAttributesHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		playerID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var attrs models.Attributes
		if err := decodeJSON(w, r, &attrs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rating.Validate(attrs); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		change, err := s.Store.SetAttributes(r.Context(), sess, playerID, attrs)
		if err != nil {
			writeError(w, s.Logger, err, "failed to set attributes")
			return
		}

		s.publishAudit(r.Context(), models.AuditRecord{
			Actor:    sess.PlayerID,
			Action:   models.AuditRatingChanged,
			Entity:   "player",
			EntityID: playerID,
			Detail:   fmt.Sprintf("%.2f -> %.2f", change.OldRating, change.NewRating),
			At:       change.ChangedAt,
		})
		writeJSON(w, http.StatusOK, change)
	}
}

// RatingChartHandler renders the rating history of a player as a PNG.
func RatingChartHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.Store.GetPlayer(r.Context(), playerID); err != nil {
			writeError(w, s.Logger, err, "failed to load player")
			return
		}
		history, err := s.Store.RatingHistory(r.Context(), playerID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load rating history")
			return
		}
		png, err := rating.HistoryChart(history)
		if err != nil {
			writeError(w, s.Logger, err, "failed to render rating chart")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}
