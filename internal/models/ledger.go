package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentKind string

const (
	PaymentMonthly PaymentKind = "monthly"
	PaymentDaily   PaymentKind = "daily"
)

// Payment is money received from a player. Amounts are kept in cents.
type Payment struct {
	ID          uuid.UUID   `json:"id"`
	PlayerID    uuid.UUID   `json:"player_id"`
	AmountCents int64       `json:"amount_cents"`
	Kind        PaymentKind `json:"kind"`
	Reference   string      `json:"reference"` // YYYY-MM
	Note        string      `json:"note,omitempty"`
	RecordedBy  uuid.UUID   `json:"recorded_by"`
	PaidAt      time.Time   `json:"paid_at"`
}

func (p Payment) Validate() error {
	if p.PlayerID == uuid.Nil {
		return fmt.Errorf("%w: player_id is required", ErrValidation)
	}
	if p.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	switch p.Kind {
	case PaymentMonthly, PaymentDaily:
	default:
		return fmt.Errorf("%w: unknown payment kind %q", ErrValidation, p.Kind)
	}
	if _, err := time.Parse(MonthLayout, p.Reference); err != nil {
		return fmt.Errorf("%w: reference must look like 2006-01", ErrValidation)
	}
	return nil
}

// Withdrawal is money taken out of the club cash (court rent, balls, ...).
type Withdrawal struct {
	ID          uuid.UUID `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	RecordedBy  uuid.UUID `json:"recorded_by"`
	WithdrawnAt time.Time `json:"withdrawn_at"`
}

func (w Withdrawal) Validate() error {
	if w.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(w.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	return nil
}

// MonthLayout is the layout of ledger reference months.
const MonthLayout = "2006-01"
