package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale status values.
const (
	SaleCompleted = "completed"
	SaleCancelled = "cancelled"
)

// Sale is the slim sales record the ledger collaborates with. Completing a
// sale posts one sale movement per payment inside the same transaction.
// Cancelling a sale flips its status only — the cash ledger is NOT adjusted
// automatically; a refund, if one happened, must be posted by an operator as
// its own expense movement.
type Sale struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShiftID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null"`
	TicketNumber int64           `gorm:"not null;uniqueIndex"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'completed'"`
	CancelReason *string
	CreatedAt    time.Time
	CancelledAt  *time.Time

	Payments []SalePayment `gorm:"foreignKey:SaleID"`
}

// SalePayment is one payment method applied to a sale.
type SalePayment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method string          `gorm:"type:varchar(20);not null"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
