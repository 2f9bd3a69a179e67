package ledger

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetPayments    = "Payments"
	SheetWithdrawals = "Withdrawals"
	SheetSummary     = "Summary"
)

// excelize built-in number format "#,##0.00"
const moneyFormat = 4

func reais(cents int64) float64 {
	return float64(cents) / 100
}

// ExportXLSX writes the month's entries and summary as a workbook to w.
func ExportXLSX(w io.Writer, s Summary, payments []models.Payment, withdrawals []models.Withdrawal, names map[uuid.UUID]string) error {
	f := excelize.NewFile()
	defer f.Close()

	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetPayments); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetWithdrawals); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	rows := [][]interface{}{{"Paid at", "Player", "Kind", "Reference", "Amount", "Note"}}
	for _, p := range payments {
		rows = append(rows, []interface{}{
			p.PaidAt.Format("2006-01-02"), names[p.PlayerID], string(p.Kind), p.Reference, reais(p.AmountCents), p.Note,
		})
	}
	if err := writeRows(f, SheetPayments, rows, bold, money, "E"); err != nil {
		return err
	}

	rows = [][]interface{}{{"Withdrawn at", "Description", "Amount"}}
	for _, wd := range withdrawals {
		rows = append(rows, []interface{}{wd.WithdrawnAt.Format("2006-01-02"), wd.Description, reais(wd.AmountCents)})
	}
	if err := writeRows(f, SheetWithdrawals, rows, bold, money, "C"); err != nil {
		return err
	}

	rows = [][]interface{}{
		{"Month", s.Month},
		{"Total in", reais(s.TotalInCents)},
		{"Total out", reais(s.TotalOutCents)},
		{"Balance", reais(s.BalanceCents)},
		{},
		{"Player", "Paid"},
	}
	for _, pt := range s.ByPlayer {
		rows = append(rows, []interface{}{pt.Name, reais(pt.TotalCents)})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Pending monthly"})
	for _, m := range s.Pending {
		rows = append(rows, []interface{}{m.Name})
	}
	if err := writeRows(f, SheetSummary, rows, bold, money, "B"); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle, moneyStyle int, moneyCol string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	if len(rows) > 1 {
		last := fmt.Sprintf("%s%d", moneyCol, len(rows))
		if err := f.SetCellStyle(sheet, moneyCol+"2", last, moneyStyle); err != nil {
			return err
		}
	}
	return nil
}
