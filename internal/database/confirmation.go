package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/models"
)

// ConfirmedPlayers lists the players confirmed for a game in confirmation order.
func (s *Store) ConfirmedPlayers(ctx context.Context, gameID uuid.UUID) ([]models.Player, error) {
	q := `
		SELECT p.id, p.user_id, p.name, p.rating, p.is_admin, p.is_monthly, p.is_active
		FROM confirmations c
		JOIN players p ON p.id = c.player_id
		WHERE c.game_id = $1
		ORDER BY c.confirmed_at, c.player_id
	`
	rows, err := s.pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("confirmed players: %w", err)
	}
	players, err := collectPlayers(rows)
	if err != nil {
		return nil, fmt.Errorf("scan confirmed players: %w", err)
	}
	return players, nil
}

// Confirm records the caller's attendance and returns the refreshed list.
// Confirming twice is a no-op.
func (s *Store) Confirm(ctx context.Context, sess auth.Session, gameID uuid.UUID) ([]models.Player, error) {
	if !sess.HasPlayer() {
		return nil, ErrNoPlayer
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// lock the game row so concurrent confirmations see a stable count
		var status models.GameStatus
		var maxPlayers int
		err := tx.QueryRow(ctx, `SELECT status, max_players FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&status, &maxPlayers)
		if err != nil {
			return translate(err)
		}
		if status != models.StatusScheduled {
			return ErrGameClosed
		}

		var already bool
		var count int
		q := `
			SELECT COALESCE(bool_or(player_id = $2), false), count(*)
			FROM confirmations WHERE game_id = $1
		`
		if err := tx.QueryRow(ctx, q, gameID, sess.PlayerID).Scan(&already, &count); err != nil {
			return err
		}
		if already {
			return nil
		}
		if maxPlayers > 0 && count >= maxPlayers {
			return ErrGameFull
		}

		_, err = tx.Exec(ctx, `INSERT INTO confirmations (game_id, player_id, confirmed_at) VALUES ($1, $2, $3)`,
			gameID, sess.PlayerID, time.Now().UTC())
		return translate(err)
	})
	if err != nil {
		return nil, fmt.Errorf("confirm game %s: %w", gameID, err)
	}
	return s.ConfirmedPlayers(ctx, gameID)
}

// Withdraw removes the caller's confirmation and returns the refreshed list.
func (s *Store) Withdraw(ctx context.Context, sess auth.Session, gameID uuid.UUID) ([]models.Player, error) {
	if !sess.HasPlayer() {
		return nil, ErrNoPlayer
	}
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.Open() {
		return nil, ErrGameClosed
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM confirmations WHERE game_id = $1 AND player_id = $2`, gameID, sess.PlayerID); err != nil {
		return nil, fmt.Errorf("withdraw game %s: %w", gameID, err)
	}
	return s.ConfirmedPlayers(ctx, gameID)
}
