package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/volei/internal/models"
)

// GetScoreboard returns the stored score of a game, or a zero board when no
// point was scored yet.
func (s *Store) GetScoreboard(ctx context.Context, gameID uuid.UUID) (models.Scoreboard, error) {
	b, err := getScoreboard(ctx, s.pool, gameID)
	if err != nil {
		return models.Scoreboard{}, fmt.Errorf("get scoreboard %s: %w", gameID, err)
	}
	return b, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getScoreboard(ctx context.Context, q queryRower, gameID uuid.UUID) (models.Scoreboard, error) {
	sql := `SELECT game_id, home, away, home_sets, away_sets, updated_at FROM scoreboards WHERE game_id = $1`
	var b models.Scoreboard
	err := q.QueryRow(ctx, sql, gameID).Scan(&b.GameID, &b.Home, &b.Away, &b.HomeSets, &b.AwaySets, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Scoreboard{GameID: gameID}, nil
	}
	return b, err
}

// UpdateScoreboard applies fn to the current score of a game and stores the
// result. Concurrent updates of the same game are serialized.
func (s *Store) UpdateScoreboard(ctx context.Context, gameID uuid.UUID, fn func(models.Scoreboard) (models.Scoreboard, error)) (models.Scoreboard, error) {
	var next models.Scoreboard
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// the game row is the lock; a scoreboard row may not exist yet
		var id uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&id); err != nil {
			return translate(err)
		}
		cur, err := getScoreboard(ctx, tx, gameID)
		if err != nil {
			return err
		}
		next, err = fn(cur)
		if err != nil {
			return err
		}

		q := `
			INSERT INTO scoreboards (game_id, home, away, home_sets, away_sets, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (game_id) DO UPDATE
			SET home = EXCLUDED.home, away = EXCLUDED.away,
			    home_sets = EXCLUDED.home_sets, away_sets = EXCLUDED.away_sets,
			    updated_at = EXCLUDED.updated_at
		`
		_, err = tx.Exec(ctx, q, gameID, next.Home, next.Away, next.HomeSets, next.AwaySets, next.UpdatedAt)
		return err
	})
	if err != nil {
		return models.Scoreboard{}, fmt.Errorf("update scoreboard %s: %w", gameID, err)
	}
	return next, nil
}
