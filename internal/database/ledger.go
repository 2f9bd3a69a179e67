package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/models"
)

// RecordPayment inserts p on behalf of an admin. ID, recorder and a missing
// paid_at are filled in here.
func (s *Store) RecordPayment(ctx context.Context, sess auth.Session, p *models.Payment) error {
	if !sess.IsAdmin {
		return ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	p.RecordedBy = sess.PlayerID

	q := `
		INSERT INTO payments (id, player_id, amount_cents, kind, reference, note, recorded_by, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, q, p.ID, p.PlayerID, p.AmountCents, p.Kind, p.Reference, p.Note, p.RecordedBy, p.PaidAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", translate(err))
	}
	return nil
}

func (s *Store) RecordWithdrawal(ctx context.Context, sess auth.Session, w *models.Withdrawal) error {
	if !sess.IsAdmin {
		return ErrForbidden
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.WithdrawnAt.IsZero() {
		w.WithdrawnAt = time.Now().UTC()
	}
	w.RecordedBy = sess.PlayerID

	q := `
		INSERT INTO withdrawals (id, amount_cents, description, recorded_by, withdrawn_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, q, w.ID, w.AmountCents, w.Description, w.RecordedBy, w.WithdrawnAt)
	if err != nil {
		return fmt.Errorf("failed to insert withdrawal: %w", translate(err))
	}
	return nil
}

// PaymentsForMonth returns the payments referencing month (YYYY-MM), oldest first.
func (s *Store) PaymentsForMonth(ctx context.Context, month string) ([]models.Payment, error) {
	q := `
		SELECT id, player_id, amount_cents, kind, reference, note, recorded_by, paid_at
		FROM payments
		WHERE reference = $1
		ORDER BY paid_at, id
	`
	rows, err := s.pool.Query(ctx, q, month)
	if err != nil {
		return nil, fmt.Errorf("payments for %s: %w", month, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.PlayerID, &p.AmountCents, &p.Kind, &p.Reference, &p.Note, &p.RecordedBy, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// WithdrawalsForMonth returns the withdrawals made during month, in loc.
func (s *Store) WithdrawalsForMonth(ctx context.Context, month string, loc *time.Location) ([]models.Withdrawal, error) {
	start, err := time.ParseInLocation(models.MonthLayout, month, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: month must look like 2006-01", models.ErrValidation)
	}
	end := start.AddDate(0, 1, 0)

	q := `
		SELECT id, amount_cents, description, recorded_by, withdrawn_at
		FROM withdrawals
		WHERE withdrawn_at >= $1 AND withdrawn_at < $2
		ORDER BY withdrawn_at, id
	`
	rows, err := s.pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, fmt.Errorf("withdrawals for %s: %w", month, err)
	}
	defer rows.Close()

	withdrawals := []models.Withdrawal{}
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.AmountCents, &w.Description, &w.RecordedBy, &w.WithdrawnAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}
