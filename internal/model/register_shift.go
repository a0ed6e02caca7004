package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift status values.
const (
	ShiftOpen   = "open"
	ShiftClosed = "closed"
)

// Closing-report delivery states (worker pipeline).
const (
	ReportNone    = "none"
	ReportPending = "pending"
	ReportSent    = "sent"
	ReportFailed  = "failed"
)

// RegisterShift is the open-to-close lifetime of one cash register session
// for one user. At most one shift per (tenant, user) may be open at a time —
// enforced by a partial unique index on top of the in-transaction check.
// Shifts are never deleted; closed shifts are retained for audit.
type RegisterShift struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CurrentAmount is the running cash-on-hand total, updated in the same
	// transaction as every movement posting/reversal.
	CurrentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedAmount is frozen at close time from the movement summary.
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// ClosedAmount is the operator-counted total. It may legitimately differ
	// from ExpectedAmount; the gap is Difference, not an error.
	ClosedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status       string           `gorm:"type:varchar(20);not null;default:'open'"`
	// CountSnapshot stores the submitted denomination breakdown as JSON,
	// kept for audit only — it is never modeled relationally.
	CountSnapshot *string `gorm:"type:jsonb"`
	Notes         *string
	ReportStatus  string  `gorm:"type:varchar(20);not null;default:'none'"`
	ReportPath    *string
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Movements []CashMovement `gorm:"foreignKey:ShiftID"`
}

// Movement types. Amounts are stored positive; direction is implied by type.
const (
	MovementOpening    = "opening"
	MovementSale       = "sale"
	MovementIncome     = "income"
	MovementExpense    = "expense"
	MovementWithdrawal = "withdrawal"
)

// Payment methods recorded on sale movements. Only cash touches the drawer.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodCredit   = "credit"
	MethodOther    = "other"
)

// CashMovement is an immutable event in the shift ledger. Movements may be
// deleted (explicit reversal) only while the parent shift is still open;
// once the shift closes, the movement set is frozen.
type CashMovement struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	ShiftID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID   *uuid.UUID `gorm:"type:uuid"`
	Type     string    `gorm:"type:varchar(20);not null"`
	// Method is set on sale movements only (cash | card | transfer | credit | other).
	Method      *string         `gorm:"type:varchar(20)"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reference   *string
	Category    *string
	Description *string
	CreatedAt   time.Time
}

// ValidMovementType reports whether t is a postable ledger type. The opening
// movement is synthesized by the open transition and cannot be posted directly.
func ValidMovementType(t string) bool {
	switch t {
	case MovementSale, MovementIncome, MovementExpense, MovementWithdrawal:
		return true
	}
	return false
}

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCredit, MethodOther:
		return true
	}
	return false
}

// CashDelta returns the movement's signed contribution to the physical drawer.
// Non-cash sale movements are informational and contribute zero.
func (m *CashMovement) CashDelta() decimal.Decimal {
	switch m.Type {
	case MovementOpening, MovementIncome:
		return m.Amount
	case MovementExpense, MovementWithdrawal:
		return m.Amount.Neg()
	case MovementSale:
		if m.Method != nil && *m.Method == MethodCash {
			return m.Amount
		}
		return decimal.Zero
	}
	return decimal.Zero
}
