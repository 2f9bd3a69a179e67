package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditPaymentRecorded    AuditAction = "payment.recorded"
	AuditWithdrawalRecorded AuditAction = "withdrawal.recorded"
	AuditRatingChanged      AuditAction = "rating.changed"
)

// AuditRecord is an append-only trace of a sensitive write. Records travel
// through the Redis audit queue before the historian stores them.
type AuditRecord struct {
	Actor       uuid.UUID   `json:"actor"`
	Action      AuditAction `json:"action"`
	Entity      string      `json:"entity"`
	EntityID    uuid.UUID   `json:"entity_id"`
	AmountCents int64       `json:"amount_cents,omitempty"`
	Detail      string      `json:"detail,omitempty"`
	At          time.Time   `json:"at"`
}
