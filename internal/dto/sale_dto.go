package dto

import "github.com/shopspring/decimal"

type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card transfer credit other"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type RecordSaleRequest struct {
	ShiftID  string           `json:"shift_id" validate:"required,uuid"`
	Total    decimal.Decimal  `json:"total"    validate:"required,gt=0"`
	Payments []PaymentRequest `json:"payments" validate:"required,min=1,dive"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type SaleResponse struct {
	ID           string           `json:"id"`
	ShiftID      string           `json:"shift_id"`
	TicketNumber int64            `json:"ticket_number"`
	Total        decimal.Decimal  `json:"total"`
	Change       decimal.Decimal  `json:"change"`
	Status       string           `json:"status"`
	Payments     []PaymentRequest `json:"payments"`
	CreatedAt    string           `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
