package service

// report.go — closing report construction. BuildClosingReport is a pure
// function over already-persisted data; PDF/email rendering happens later in
// the worker pipeline, after the close transaction is durably committed.

import (
	"sort"

	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/model"

	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02T15:04:05Z"

// BuildClosingReport assembles the printable closing artifact from a closed
// shift, its summary, and the counted denomination breakdown. Denominations
// are listed in the configured order (largest bill first); denominations with
// a zero count still appear so the printed form matches the counting sheet.
func BuildClosingReport(
	shift *model.RegisterShift,
	summary dto.ShiftSummary,
	bills map[int]int,
	coins decimal.Decimal,
	denoms []model.Denomination,
	cashier, branch, currency string,
) dto.ClosingReport {
	ordered := make([]model.Denomination, len(denoms))
	copy(ordered, denoms)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	lines := make([]dto.CountLine, 0, len(ordered))
	for _, d := range ordered {
		qty := bills[d.Value]
		lines = append(lines, dto.CountLine{
			Denomination: d.Value,
			Quantity:     qty,
			Subtotal:     decimal.NewFromInt(int64(d.Value)).Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	closedAt := ""
	if shift.ClosedAt != nil {
		closedAt = shift.ClosedAt.UTC().Format(timeLayout)
	}

	return dto.ClosingReport{
		ShiftID:        shift.ID.String(),
		Branch:         branch,
		Cashier:        cashier,
		Currency:       currency,
		OpenedAt:       shift.OpenedAt.UTC().Format(timeLayout),
		ClosedAt:       closedAt,
		Summary:        summary,
		CountLines:     lines,
		CoinsTotal:     coins,
		Reconciliation: Reconcile(summary.ExpectedBalance, BillsTotal(bills), coins),
		Notes:          shift.Notes,
		Signatures: []dto.SignatureLine{
			{Role: "Cashier", Name: cashier},
			{Role: "Supervisor"},
		},
	}
}
