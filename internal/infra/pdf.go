package infra

// pdf.go — Closing-report rendering using go-pdf/fpdf.
// Produces a thermal receipt-style document with:
//   - Branch name header
//   - Cashier and open/close timestamps
//   - Shift totals (sales by method, incomes, expenses, withdrawals)
//   - Denomination count table
//   - Reconciliation block (expected vs counted, signed difference)
//   - Sign-off lines for the cashier and supervisor
//
// Rendering is deterministic: the PDF creation date is pinned to the
// shift's closing time, so rendering the same closed shift twice yields
// byte-identical output.

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/dto"

	"github.com/go-pdf/fpdf"
)

// RenderClosingReportPDF renders a closing report to PDF bytes.
func RenderClosingReportPDF(report dto.ClosingReport) ([]byte, error) {
	closedAt, err := time.Parse(time.RFC3339, report.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("pdf: parse closed_at: %w", err)
	}

	// 74mm wide — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 200},
	})
	pdf.SetCreationDate(closedAt)
	pdf.SetModificationDate(closedAt)
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	colL := contentW * 0.58
	colR := contentW * 0.42

	line := func() {
		pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
		pdf.Ln(2)
	}
	row := func(label, value string) {
		pdf.CellFormat(colL, 4.5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(colR, 4.5, value, "", 1, "R", false, 0, "")
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, report.Branch, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Shift Closing Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Shift info ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	row("Cashier:", report.Cashier)
	row("Opened:", report.OpenedAt)
	row("Closed:", report.ClosedAt)
	row("Currency:", report.Currency)
	pdf.Ln(2)
	line()

	// ── Totals ────────────────────────────────────────────────────────────────
	s := report.Summary
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Totals", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	row("Opening amount:", s.OpeningAmount.StringFixed(2))
	row("Sales (cash):", s.TotalCashSales.StringFixed(2))
	row("Sales (card):", s.SalesByMethod.Card.StringFixed(2))
	row("Sales (transfer):", s.SalesByMethod.Transfer.StringFixed(2))
	row("Sales (credit):", s.SalesByMethod.Credit.StringFixed(2))
	row("Sales (other):", s.SalesByMethod.Other.StringFixed(2))
	row("Sales total:", s.TotalSales.StringFixed(2))
	row("Incomes:", s.TotalIncome.StringFixed(2))
	row("Expenses:", s.TotalExpenses.StringFixed(2))
	row("Withdrawals:", s.TotalWithdrawals.StringFixed(2))
	pdf.SetFont("Helvetica", "B", 7)
	row("Expected in drawer:", s.ExpectedBalance.StringFixed(2))
	pdf.Ln(2)
	line()

	// ── Denomination count ────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Cash Count", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 7)
	c1 := contentW * 0.40
	c2 := contentW * 0.24
	c3 := contentW * 0.36
	pdf.CellFormat(c1, 4.5, "Denomination", "B", 0, "L", false, 0, "")
	pdf.CellFormat(c2, 4.5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(c3, 4.5, "Subtotal", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	for _, l := range report.CountLines {
		pdf.CellFormat(c1, 4.5, fmt.Sprintf("$%d", l.Denomination), "", 0, "L", false, 0, "")
		pdf.CellFormat(c2, 4.5, fmt.Sprintf("x%d", l.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(c3, 4.5, l.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}
	row("Coins:", report.CoinsTotal.StringFixed(2))
	pdf.Ln(2)
	line()

	// ── Reconciliation ────────────────────────────────────────────────────────
	r := report.Reconciliation
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Reconciliation", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	row("Counted total:", r.CountedTotal.StringFixed(2))
	row("Expected:", r.ExpectedBalance.StringFixed(2))
	pdf.SetFont("Helvetica", "B", 9)
	label := "EXACT"
	if r.Label != "" {
		label = fmt.Sprintf("%s %s", r.Label, r.Difference.Abs().StringFixed(2))
	}
	row("Difference:", r.Difference.StringFixed(2))
	pdf.CellFormat(contentW, 6, label, "", 1, "C", false, 0, "")

	// ── Cancelled sales ───────────────────────────────────────────────────────
	if len(s.CancelledSales) > 0 {
		pdf.Ln(2)
		line()
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, "Cancelled Sales", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for _, cs := range s.CancelledSales {
			row(fmt.Sprintf("Ticket %d:", cs.TicketNumber), cs.Total.StringFixed(2))
		}
	}

	// ── Notes ────────────────────────────────────────────────────────────────
	if report.Notes != nil && *report.Notes != "" {
		pdf.Ln(2)
		line()
		pdf.SetFont("Helvetica", "I", 7)
		pdf.MultiCell(contentW, 4, *report.Notes, "", "L", false)
	}

	// ── Signatures ────────────────────────────────────────────────────────────
	pdf.Ln(2)
	line()
	pdf.SetFont("Helvetica", "", 7)
	for _, sig := range report.Signatures {
		pdf.Ln(8) // room to sign above the rule
		pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
		caption := sig.Role
		if sig.Name != "" {
			caption = fmt.Sprintf("%s / %s", sig.Role, sig.Name)
		}
		pdf.CellFormat(contentW, 4.5, caption, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
