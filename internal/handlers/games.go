package handlers

import (
	"fmt"
	"net/http"

	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
)

type createGameRequest struct {
	Kind       models.GameKind `json:"kind"`
	Title      string          `json:"title"`
	Location   string          `json:"location"`
	StartsAt   string          `json:"starts_at"`
	MaxPlayers int             `json:"max_players"`
}

type createGameResponse struct {
	models.Game
	ReminderScheduled bool `json:"reminder_scheduled"`
}

// ListGamesHandler returns scheduled games that have not started yet.
func ListGamesHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := s.Store.ListUpcomingGames(r.Context(), s.Now())
		if err != nil {
			writeError(w, s.Logger, err, "failed to list games")
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

// CreateGameHandler schedules a game or event. starts_at accepts RFC 3339 or a
// phrase such as "saturday 9am", read in the club timezone.
func CreateGameHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		var req createGameRequest
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Kind == "" {
			req.Kind = models.KindGame
		}

		startsAt, err := s.Schedule.ParseStart(req.StartsAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		g := models.Game{
			Kind:       req.Kind,
			Title:      req.Title,
			Location:   req.Location,
			StartsAt:   startsAt,
			MaxPlayers: req.MaxPlayers,
		}
		if err := s.Store.CreateGame(r.Context(), sess, &g); err != nil {
			writeError(w, s.Logger, err, "failed to create game")
			return
		}

		resp := createGameResponse{Game: g}
		if s.Reminders != nil {
			scheduled, err := s.Reminders.ScheduleGameReminder(r.Context(), g)
			if err != nil {
				// The game exists; a missing reminder is not worth failing the request.
				s.Logger.WithError(err).WithField("game_id", g.ID).Error("failed to schedule reminder")
			}
			resp.ReminderScheduled = scheduled
		}

		s.Logger.WithFields(logrus.Fields{
			"game_id":   g.ID,
			"starts_at": g.StartsAt,
			"by":        sess.PlayerID,
		}).Info("game created")
		writeJSON(w, http.StatusCreated, resp)
	}
}

type setStatusRequest struct {
	Status models.GameStatus `json:"status"`
}

// SetGameStatusHandler marks a game finished or cancelled.
func SetGameStatusHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req setStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch req.Status {
		case models.StatusFinished, models.StatusCancelled, models.StatusScheduled:
		default:
			http.Error(w, fmt.Sprintf("unknown status %q", req.Status), http.StatusBadRequest)
			return
		}

		if err := s.Store.SetGameStatus(r.Context(), sess, gameID, req.Status); err != nil {
			writeError(w, s.Logger, err, "failed to set game status")
			return
		}
		g, err := s.Store.GetGame(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to reload game")
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// ListConfirmationsHandler returns the confirmed players in confirmation order.
func ListConfirmationsHandler(s *ClubServer) http.HandlerFunc {
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
		players, err := s.Store.ConfirmedPlayers(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to list confirmations")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

// ConfirmHandler confirms the caller for a game and returns the refreshed list.
func ConfirmHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		players, err := s.Store.Confirm(r.Context(), sess, gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to confirm")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

// WithdrawHandler removes the caller's confirmation and returns the refreshed list.
func WithdrawHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		players, err := s.Store.Withdraw(r.Context(), sess, gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to withdraw")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}
