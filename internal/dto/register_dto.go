package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
}

// CloseShiftRequest carries the physical count. Bill keys arrive as JSON
// strings ("500": 3); the service parses and validates them against the
// configured denomination table.
type CloseShiftRequest struct {
	ShiftID      string          `json:"shift_id"      validate:"required,uuid"`
	CountedBills map[string]int  `json:"counted_bills" validate:"required"`
	CountedCoins decimal.Decimal `json:"counted_coins" validate:"min=0"`
	Notes        *string         `json:"notes"`
}

type MovementRequest struct {
	ShiftID     string          `json:"shift_id" validate:"required,uuid"`
	Type        string          `json:"type"     validate:"required,oneof=sale income expense withdrawal"`
	Amount      decimal.Decimal `json:"amount"   validate:"required,gt=0"`
	Method      *string         `json:"method"   validate:"omitempty,oneof=cash card transfer credit other"`
	Reference   *string         `json:"reference"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShiftResponse struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	OpeningAmount  decimal.Decimal  `json:"opening_amount"`
	CurrentAmount  decimal.Decimal  `json:"current_amount"`
	ExpectedAmount *decimal.Decimal `json:"expected_amount,omitempty"`
	ClosedAmount   *decimal.Decimal `json:"closed_amount,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	Status         string           `json:"status"`
	ReportStatus   string           `json:"report_status"`
	Notes          *string          `json:"notes,omitempty"`
	OpenedAt       string           `json:"opened_at"`
	ClosedAt       *string          `json:"closed_at,omitempty"`
}

type MovementResponse struct {
	ID          string          `json:"id"`
	ShiftID     string          `json:"shift_id"`
	Type        string          `json:"type"`
	Method      *string         `json:"method,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   *string         `json:"reference,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// MethodBreakdown splits sale totals by payment method. Only the cash column
// feeds the expected balance; the rest is informational.
type MethodBreakdown struct {
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
	Credit   decimal.Decimal `json:"credit"`
	Other    decimal.Decimal `json:"other"`
	Total    decimal.Decimal `json:"total"`
}

// CancelledSaleItem is shown on summaries for audit context. Cancelled sales
// never adjust the ledger automatically.
type CancelledSaleItem struct {
	ID           string          `json:"id"`
	TicketNumber int64           `json:"ticket_number"`
	Total        decimal.Decimal `json:"total"`
	CancelledAt  string          `json:"cancelled_at"`
	Reason       *string         `json:"reason,omitempty"`
}

type ShiftSummary struct {
	ShiftID          string              `json:"shift_id"`
	OpeningAmount    decimal.Decimal     `json:"opening_amount"`
	TotalSales       decimal.Decimal     `json:"total_sales"`
	TotalCashSales   decimal.Decimal     `json:"total_cash_sales"`
	TotalIncome      decimal.Decimal     `json:"total_income"`
	TotalExpenses    decimal.Decimal     `json:"total_expenses"`
	TotalWithdrawals decimal.Decimal     `json:"total_withdrawals"`
	ExpectedBalance  decimal.Decimal     `json:"expected_balance"`
	SalesByMethod    MethodBreakdown     `json:"sales_by_method"`
	CancelledSales   []CancelledSaleItem `json:"cancelled_sales"`
}

// Reconciliation variance labels.
const (
	LabelSurplus  = "surplus"
	LabelShortage = "shortage"
)

type ReconciliationResponse struct {
	BillsTotal      decimal.Decimal `json:"bills_total"`
	CoinsTotal      decimal.Decimal `json:"coins_total"`
	CountedTotal    decimal.Decimal `json:"counted_total"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Difference      decimal.Decimal `json:"difference"`
	// Label is "surplus", "shortage", or empty on an exact match.
	Label string `json:"label,omitempty"`
}

type CloseShiftResponse struct {
	Shift          ShiftResponse          `json:"shift"`
	Summary        ShiftSummary           `json:"summary"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
}

type ShiftListResponse struct {
	Data  []ShiftResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type DenominationResponse struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// ─── Closing report ──────────────────────────────────────────────────────────

// CountLine is one row of the physical-count detail on the closing report.
type CountLine struct {
	Denomination int             `json:"denomination"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// ClosingReport is the printable artifact built from a closed shift. Building
// it is pure: the same persisted summary + count always yields the same report.
type ClosingReport struct {
	ShiftID        string                 `json:"shift_id"`
	Branch         string                 `json:"branch"`
	Cashier        string                 `json:"cashier"`
	Currency       string                 `json:"currency"`
	OpenedAt       string                 `json:"opened_at"`
	ClosedAt       string                 `json:"closed_at"`
	Summary        ShiftSummary           `json:"summary"`
	CountLines     []CountLine            `json:"count_lines"`
	CoinsTotal     decimal.Decimal        `json:"coins_total"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
	Notes          *string                `json:"notes,omitempty"`
	Signatures     []SignatureLine        `json:"signatures"`
}

// SignatureLine is a sign-off placeholder printed at the bottom of the closing
// report. Name may be empty when the signer is not known at close time.
type SignatureLine struct {
	Role string `json:"role"`
	Name string `json:"name"`
}
