package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/middleware"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/scoreboard"
	"github.com/sirupsen/logrus"
)

const (
	scoreboardSubprotocol = "scoreboard"

	wsPingInterval = 30 * time.Second
	wsPingTimeout  = 15 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// scoreboardMessage is the envelope of every frame sent to a subscriber.
type scoreboardMessage struct {
	Type  string             `json:"type"`
	Board *models.Scoreboard `json:"board,omitempty"`
}

type clientMessage struct {
	Type string `json:"type"`
}

// ScoreboardWSHandler streams the score of a game. The client receives the
// current state right after connecting and then every update.
func ScoreboardWSHandler(s *ClubServer) http.HandlerFunc {
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

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{scoreboardSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Logger.WithError(err).WithField("game_id", gameID).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")

		if c.Subprotocol() != scoreboardSubprotocol {
			c.Close(BadSubprotocolError, "client must use the 'scoreboard' subprotocol")
			return
		}
		middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

		sub := s.Hub.Subscribe(gameID)
		defer s.Hub.Unsubscribe(sub)

		board, err := s.Store.GetScoreboard(r.Context(), gameID)
		if err != nil {
			s.Logger.WithError(err).WithField("game_id", gameID).Error("failed to load scoreboard for subscriber")
			c.Close(websocket.StatusInternalError, "failed to load scoreboard")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go func() {
			defer cancel()
			readScoreboardMessages(ctx, c, gameID, s.Logger)
		}()

		err = writeScoreboardPump(ctx, c, sub, board, s.Logger)
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
		if err == nil {
			c.Close(websocket.StatusNormalClosure, "")
		}
	}
}

// readScoreboardMessages answers client pings until the connection drops.
// Subscribers have nothing else to say.
func readScoreboardMessages(ctx context.Context, c *websocket.Conn, gameID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.WithError(err).WithField("game_id", gameID).Debug("scoreboard websocket read ended")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			if err := writeFrame(ctx, c, scoreboardMessage{Type: "pong"}); err != nil {
				return
			}
		}
	}
}

// writeScoreboardPump sends the initial board and then every update from sub.
// It returns nil when the subscription or the context ends.
func writeScoreboardPump(ctx context.Context, c *websocket.Conn, sub *scoreboard.Subscriber, initial models.Scoreboard, logger *logrus.Logger) error {
	if err := writeFrame(ctx, c, scoreboardMessage{Type: "scoreboard", Board: &initial}); err != nil {
		return err
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case board, ok := <-sub.Out:
			if !ok {
				return nil
			}
			if err := writeFrame(ctx, c, scoreboardMessage{Type: "scoreboard", Board: &board}); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.WithError(err).WithField("game_id", sub.GameID).Warn("failed to write scoreboard update")
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsPingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func writeFrame(ctx context.Context, c *websocket.Conn, msg scoreboardMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
