package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/draw"
	"github.com/sirupsen/logrus"
)

type drawRequest struct {
	draw.Config
	// Seed makes a random draw reproducible. A fresh seed is generated when
	// omitted and returned in the response.
	Seed            *int64      `json:"seed,omitempty"`
	Visitors        int         `json:"visitors"`
	ExtraPlayerIDs  []uuid.UUID `json:"extra_player_ids"`
	AbsentPlayerIDs []uuid.UUID `json:"absent_player_ids"`
}

type drawResponse struct {
	Teams    []draw.Team `json:"teams"`
	Message  string      `json:"message"`
	Seed     int64       `json:"seed"`
	PoolSize int         `json:"pool_size"`
}

// DrawHandler splits the players present at a game into teams. The pool is
// the confirmed list plus extra players and visitors, minus absentees.
func DrawHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req drawRequest
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := req.Config.Validate(); err != nil {
			s.rejectDraw(req.Mode)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Visitors < 0 {
			s.rejectDraw(req.Mode)
			http.Error(w, "visitors must not be negative", http.StatusBadRequest)
			return
		}

		if _, err := s.Store.GetGame(r.Context(), gameID); err != nil {
			writeError(w, s.Logger, err, "failed to load game")
			return
		}
		confirmed, err := s.Store.ConfirmedPlayers(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load confirmations")
			return
		}
		extra, err := s.Store.PlayersByIDs(r.Context(), req.ExtraPlayerIDs)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load extra players")
			return
		}

		absent := make(map[uuid.UUID]bool, len(req.AbsentPlayerIDs))
		for _, id := range req.AbsentPlayerIDs {
			absent[id] = true
		}
		pool := draw.BuildPool(draw.PoolInput{
			Confirmed: confirmed,
			Extra:     extra,
			Visitors:  req.Visitors,
			Absent:    absent,
		})

		var seed int64
		if req.Seed != nil {
			seed = *req.Seed
		} else if seed, err = s.NewSeed(); err != nil {
			writeError(w, s.Logger, err, "failed to seed draw")
			return
		}

		teams, err := draw.Run(pool, req.Config, s.NewRand(seed))
		resp := drawResponse{Teams: teams, Seed: seed, PoolSize: len(pool)}
		switch {
		case errors.Is(err, draw.ErrNoPlayers):
			s.observeDraw(req.Mode, "empty", 0)
			resp.Teams = []draw.Team{}
			resp.Message = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		case err != nil:
			s.rejectDraw(req.Mode)
			writeError(w, s.Logger, err, "draw failed")
			return
		}

		s.observeDraw(req.Mode, "ok", len(pool))
		s.Logger.WithFields(logrus.Fields{
			"game_id": gameID,
			"mode":    req.Mode.Label(),
			"pool":    len(pool),
			"teams":   len(teams),
			"seed":    seed,
			"spread":  draw.Spread(teams),
		}).Info("teams drawn")
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *ClubServer) observeDraw(mode draw.Mode, outcome string, poolSize int) {
	if s.Metrics != nil {
		s.Metrics.ObserveDraw(mode.Label(), outcome, poolSize)
	}
}

func (s *ClubServer) rejectDraw(mode draw.Mode) {
	if s.Metrics != nil {
		s.Metrics.RejectDraw(mode.Label())
	}
}
