// internal/database/game.go
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

const gameColumns = `id, kind, title, location, starts_at, max_players, status, created_by`

func scanGame(row pgx.Row) (models.Game, error) {
	var g models.Game
	err := row.Scan(&g.ID, &g.Kind, &g.Title, &g.Location, &g.StartsAt, &g.MaxPlayers, &g.Status, &g.CreatedBy)
	return g, err
}

// CreateGame inserts g as a scheduled game created by the caller. ID and
// status are assigned here.
func (s *Store) CreateGame(ctx context.Context, sess auth.Session, g *models.Game) error {
	if !sess.IsAdmin {
		return ErrForbidden
	}
	if g.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate game id: %w", err)
		}
		g.ID = id
	}
	g.Status = models.StatusScheduled
	g.CreatedBy = sess.PlayerID
	if err := g.Validate(); err != nil {
		return err
	}

	q := `INSERT INTO games (` + gameColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, q, g.ID, g.Kind, g.Title, g.Location, g.StartsAt, g.MaxPlayers, g.Status, g.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", translate(err))
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id uuid.UUID) (models.Game, error) {
	q := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	g, err := scanGame(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return models.Game{}, fmt.Errorf("get game %s: %w", id, translate(err))
	}
	return g, nil
}

// ListUpcomingGames returns scheduled games starting at or after from, soonest first.
func (s *Store) ListUpcomingGames(ctx context.Context, from time.Time) ([]models.Game, error) {
	q := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status = 'scheduled' AND starts_at >= $1
		ORDER BY starts_at, id
	`
	rows, err := s.pool.Query(ctx, q, from)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// SetGameStatus moves a game to finished or cancelled.
func (s *Store) SetGameStatus(ctx context.Context, sess auth.Session, id uuid.UUID, status models.GameStatus) error {
	if !sess.IsAdmin {
		return ErrForbidden
	}
	tag, err := s.pool.Exec(ctx, `UPDATE games SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set game status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return nil
}
