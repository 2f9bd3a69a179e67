// internal/database/player.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/volei/internal/models"
)

const playerColumns = `id, user_id, name, rating, is_admin, is_monthly, is_active`

func scanPlayer(row pgx.Row) (models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Rating, &p.IsAdmin, &p.IsMonthly, &p.IsActive)
	return p, err
}

func collectPlayers(rows pgx.Rows) ([]models.Player, error) {
	defer rows.Close()
	players := []models.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ListPlayers returns every player ordered by name; activeOnly drops inactive members.
func (s *Store) ListPlayers(ctx context.Context, activeOnly bool) ([]models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE is_active OR NOT $1 ORDER BY name, id`
	rows, err := s.pool.Query(ctx, q, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	players, err := collectPlayers(rows)
	if err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}
	return players, nil
}

func (s *Store) GetPlayer(ctx context.Context, id uuid.UUID) (models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return models.Player{}, fmt.Errorf("get player %s: %w", id, translate(err))
	}
	return p, nil
}

// PlayerByUserID resolves the player linked to an auth user.
func (s *Store) PlayerByUserID(ctx context.Context, userID uuid.UUID) (models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1`
	p, err := scanPlayer(s.pool.QueryRow(ctx, q, userID))
	if err != nil {
		return models.Player{}, fmt.Errorf("player for user %s: %w", userID, translate(err))
	}
	return p, nil
}

// PlayersByIDs loads the given players in the order of ids. Unknown IDs are
// reported as ErrNotFound.
func (s *Store) PlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error) {
	if len(ids) == 0 {
		return []models.Player{}, nil
	}
	q := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("players by ids: %w", err)
	}
	found, err := collectPlayers(rows)
	if err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}

	byID := make(map[uuid.UUID]models.Player, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		out = append(out, p)
	}
	return out, nil
}
