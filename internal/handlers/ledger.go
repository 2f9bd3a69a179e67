package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/ledger"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ledgerResponse struct {
	Summary     ledger.Summary      `json:"summary"`
	Payments    []models.Payment    `json:"payments"`
	Withdrawals []models.Withdrawal `json:"withdrawals"`
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month in the
// club timezone.
func (s *ClubServer) monthParam(r *http.Request) (string, error) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return s.Now().In(s.Schedule.Location()).Format(models.MonthLayout), nil
	}
	if _, err := time.Parse(models.MonthLayout, month); err != nil {
		return "", fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	return month, nil
}

func (s *ClubServer) loadLedger(ctx context.Context, month string) (ledgerResponse, []models.Player, error) {
	var resp ledgerResponse
	members, err := s.Store.ListPlayers(ctx, false)
	if err != nil {
		return resp, nil, err
	}
	if resp.Payments, err = s.Store.PaymentsForMonth(ctx, month); err != nil {
		return resp, nil, err
	}
	if resp.Withdrawals, err = s.Store.WithdrawalsForMonth(ctx, month, s.Schedule.Location()); err != nil {
		return resp, nil, err
	}
	resp.Summary = ledger.Summarize(month, members, resp.Payments, resp.Withdrawals)
	return resp, members, nil
}

// LedgerHandler returns the entries and the summary of one month.
func LedgerHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, err := s.monthParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, _, err := s.loadLedger(r.Context(), month)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load ledger")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LedgerExportHandler sends the month as an xlsx workbook.
func LedgerExportHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, err := s.monthParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, members, err := s.loadLedger(r.Context(), month)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load ledger")
			return
		}
		names := make(map[uuid.UUID]string, len(members))
		for _, m := range members {
			names[m.ID] = m.Name
		}

		var buf bytes.Buffer
		if err := ledger.ExportXLSX(&buf, resp.Summary, resp.Payments, resp.Withdrawals, names); err != nil {
			writeError(w, s.Logger, err, "failed to export ledger")
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-%s.xlsx"`, month))
		_, _ = w.Write(buf.Bytes())
	}
}

// RecordPaymentHandler stores a payment and answers with the refreshed month.
func RecordPaymentHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		var p models.Payment
		if err := decodeJSON(w, r, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.Store.GetPlayer(r.Context(), p.PlayerID); err != nil {
			writeError(w, s.Logger, err, "failed to load player")
			return
		}
		if err := s.Store.RecordPayment(r.Context(), sess, &p); err != nil {
			writeError(w, s.Logger, err, "failed to record payment")
			return
		}

		s.publishAudit(r.Context(), models.AuditRecord{
			Actor:       sess.PlayerID,
			Action:      models.AuditPaymentRecorded,
			Entity:      "payment",
			EntityID:    p.ID,
			AmountCents: p.AmountCents,
			Detail:      fmt.Sprintf("%s %s player=%s", p.Kind, p.Reference, p.PlayerID),
			At:          s.Now().UTC(),
		})
		s.Logger.WithFields(logrus.Fields{
			"payment_id": p.ID,
			"player_id":  p.PlayerID,
			"amount":     p.AmountCents,
		}).Info("payment recorded")

		resp, _, err := s.loadLedger(r.Context(), p.Reference)
		if err != nil {
			writeError(w, s.Logger, err, "failed to reload ledger")
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// RecordWithdrawalHandler stores a withdrawal and answers with the refreshed
// month it falls in.
func RecordWithdrawalHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		var wd models.Withdrawal
		if err := decodeJSON(w, r, &wd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := wd.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Store.RecordWithdrawal(r.Context(), sess, &wd); err != nil {
			writeError(w, s.Logger, err, "failed to record withdrawal")
			return
		}

		s.publishAudit(r.Context(), models.AuditRecord{
			Actor:       sess.PlayerID,
			Action:      models.AuditWithdrawalRecorded,
			Entity:      "withdrawal",
			EntityID:    wd.ID,
			AmountCents: wd.AmountCents,
			Detail:      wd.Description,
			At:          s.Now().UTC(),
		})
		s.Logger.WithFields(logrus.Fields{
			"withdrawal_id": wd.ID,
			"amount":        wd.AmountCents,
		}).Info("withdrawal recorded")

		month := wd.WithdrawnAt.In(s.Schedule.Location()).Format(models.MonthLayout)
		resp, _, err := s.loadLedger(r.Context(), month)
		if err != nil {
			writeError(w, s.Logger, err, "failed to reload ledger")
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}
