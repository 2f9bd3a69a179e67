// internal/database/rating.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/rating"
)

func (s *Store) GetAttributes(ctx context.Context, playerID uuid.UUID) (models.Attributes, error) {
	var a models.Attributes
	q := `SELECT serve, pass, attack, block, defense, setting FROM players WHERE id = $1`
	err := s.pool.QueryRow(ctx, q, playerID).Scan(&a.Serve, &a.Pass, &a.Attack, &a.Block, &a.Defense, &a.Setting)
	if err != nil {
		return a, fmt.Errorf("get attributes %s: %w", playerID, translate(err))
	}
	return a, nil
}

// SetAttributes stores new grades for a player, recomputes the rating and
// appends the change to rating_history in one transaction.
func (s *Store) SetAttributes(ctx context.Context, sess auth.Session, playerID uuid.UUID, a models.Attributes) (models.RatingChange, error) {
	if !sess.IsAdmin {
		return models.RatingChange{}, ErrForbidden
	}
	newRating, err := rating.FromAttributes(a)
	if err != nil {
		return models.RatingChange{}, err
	}

	change := models.RatingChange{
		PlayerID:  playerID,
		NewRating: newRating,
		ChangedBy: sess.PlayerID,
		ChangedAt: time.Now().UTC(),
	}
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT rating FROM players WHERE id = $1 FOR UPDATE`, playerID).Scan(&change.OldRating); err != nil {
			return translate(err)
		}

		update := `
			UPDATE players
			SET serve = $2, pass = $3, attack = $4, block = $5, defense = $6, setting = $7, rating = $8
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, update, playerID, a.Serve, a.Pass, a.Attack, a.Block, a.Defense, a.Setting, newRating); err != nil {
			return err
		}

		history := `
			INSERT INTO rating_history (player_id, old_rating, new_rating, changed_by, changed_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.Exec(ctx, history, playerID, change.OldRating, change.NewRating, change.ChangedBy, change.ChangedAt)
		return err
	})
	if err != nil {
		return models.RatingChange{}, fmt.Errorf("set attributes %s: %w", playerID, err)
	}
	return change, nil
}

// RatingHistory returns a player's rating changes, oldest first.
func (s *Store) RatingHistory(ctx context.Context, playerID uuid.UUID) ([]models.RatingChange, error) {
	q := `
		SELECT player_id, old_rating, new_rating, changed_by, changed_at
		FROM rating_history
		WHERE player_id = $1
		ORDER BY changed_at, id
	`
	rows, err := s.pool.Query(ctx, q, playerID)
	if err != nil {
		return nil, fmt.Errorf("rating history: %w", err)
	}
	defer rows.Close()

	history := []models.RatingChange{}
	for rows.Next() {
		var c models.RatingChange
		if err := rows.Scan(&c.PlayerID, &c.OldRating, &c.NewRating, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan rating history: %w", err)
		}
		history = append(history, c)
	}
	return history, rows.Err()
}
