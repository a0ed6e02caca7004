package service

// reconcile.go — pure reconciliation math for the close operation.
// Everything here is side-effect free: the same inputs always produce the
// same outputs, which is what makes closing reports reproducible.

import (
	"fmt"
	"strconv"

	"github.com/Mike861205/cajavscode-sub001/internal/apierror"
	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/model"

	"github.com/shopspring/decimal"
)

// ParseBillCounts converts the wire-format count ("500": 3) into a typed
// denomination map, validating every key against the configured denomination
// set. An all-zero count is valid; it simply reconciles as a full shortage.
func ParseBillCounts(raw map[string]int, allowed []model.Denomination) (map[int]int, error) {
	valid := make(map[int]bool, len(allowed))
	for _, d := range allowed {
		valid[d.Value] = true
	}

	bills := make(map[int]int, len(raw))
	for key, qty := range raw {
		value, err := strconv.Atoi(key)
		if err != nil {
			return nil, apierror.Validation(fmt.Sprintf("denomination %q is not numeric", key))
		}
		if !valid[value] {
			return nil, apierror.Validation(fmt.Sprintf("denomination %d is not configured", value))
		}
		if qty < 0 {
			return nil, apierror.Validation(fmt.Sprintf("denomination %d has a negative count", value))
		}
		bills[value] = qty
	}
	return bills, nil
}

// BillsTotal is Σ(denomination × quantity) over the counted bills.
func BillsTotal(bills map[int]int) decimal.Decimal {
	total := decimal.Zero
	for value, qty := range bills {
		total = total.Add(decimal.NewFromInt(int64(value)).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// Reconcile compares the physically-counted total against the expected
// balance. The comparison is exact: any nonzero difference is reported, with
// no tolerance band. A positive difference is a surplus, negative a shortage;
// an exact match carries no label.
func Reconcile(expected, billsTotal, coinsTotal decimal.Decimal) dto.ReconciliationResponse {
	counted := billsTotal.Add(coinsTotal)
	diff := counted.Sub(expected)

	label := ""
	switch {
	case diff.IsPositive():
		label = dto.LabelSurplus
	case diff.IsNegative():
		label = dto.LabelShortage
	}

	return dto.ReconciliationResponse{
		BillsTotal:      billsTotal,
		CoinsTotal:      coinsTotal,
		CountedTotal:    counted,
		ExpectedBalance: expected,
		Difference:      diff,
		Label:           label,
	}
}
