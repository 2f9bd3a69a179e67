// Package ledger summarizes and exports the club cash book.
package ledger

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
)

// PlayerTotal is what one player paid in the summarized period.
type PlayerTotal struct {
	PlayerID   uuid.UUID `json:"player_id"`
	Name       string    `json:"name"`
	TotalCents int64     `json:"total_cents"`
}

// Summary is the cash position of one reference month.
type Summary struct {
	Month         string          `json:"month"`
	TotalInCents  int64           `json:"total_in_cents"`
	TotalOutCents int64           `json:"total_out_cents"`
	BalanceCents  int64           `json:"balance_cents"`
	ByPlayer      []PlayerTotal   `json:"by_player"`
	Pending       []models.Player `json:"pending"`
}

// Summarize totals the given entries. members is the player roster; active
// monthly members without a monthly payment referencing month are reported as
// pending. ByPlayer is ordered by amount, largest first, then by name.
func Summarize(month string, members []models.Player, payments []models.Payment, withdrawals []models.Withdrawal) Summary {
	s := Summary{
		Month:    month,
		ByPlayer: []PlayerTotal{},
		Pending:  []models.Player{},
	}

	names := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	totals := make(map[uuid.UUID]int64)
	paidMonthly := make(map[uuid.UUID]bool)
	for _, p := range payments {
		s.TotalInCents += p.AmountCents
		totals[p.PlayerID] += p.AmountCents
		if p.Kind == models.PaymentMonthly && p.Reference == month {
			paidMonthly[p.PlayerID] = true
		}
	}
	for _, w := range withdrawals {
		s.TotalOutCents += w.AmountCents
	}
	s.BalanceCents = s.TotalInCents - s.TotalOutCents

	for id, total := range totals {
		s.ByPlayer = append(s.ByPlayer, PlayerTotal{PlayerID: id, Name: names[id], TotalCents: total})
	}
	slices.SortFunc(s.ByPlayer, func(a, b PlayerTotal) int {
		if c := cmp.Compare(b.TotalCents, a.TotalCents); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID.String(), b.PlayerID.String())
	})

	for _, m := range members {
		if m.IsMonthly && m.IsActive && !paidMonthly[m.ID] {
			s.Pending = append(s.Pending, m)
		}
	}
	return s
}
