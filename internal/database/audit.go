package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/volei/internal/models"
)

// InsertAuditRecords stores a batch of audit records in a single transaction.
func (s *Store) InsertAuditRecords(ctx context.Context, records []models.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO audit_log (actor, action, entity, entity_id, amount_cents, detail, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(q, r.Actor, r.Action, r.Entity, r.EntityID, r.AmountCents, r.Detail, r.At)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert audit records: %w", err)
		}
		return nil
	})
}

// AuditLog returns the most recent audit records, newest first.
func (s *Store) AuditLog(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	q := `
		SELECT actor, action, entity, entity_id, amount_cents, detail, at
		FROM audit_log
		ORDER BY at DESC, id DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	defer rows.Close()

	records := []models.AuditRecord{}
	for rows.Next() {
		var r models.AuditRecord
		if err := rows.Scan(&r.Actor, &r.Action, &r.Entity, &r.EntityID, &r.AmountCents, &r.Detail, &r.At); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
