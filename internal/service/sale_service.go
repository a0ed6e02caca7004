package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/apierror"
	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/model"
	"github.com/Mike861205/cajavscode-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Record(ctx context.Context, tenantID, userID uuid.UUID, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, tenantID uuid.UUID, saleID uuid.UUID, reason string) error
	List(ctx context.Context, tenantID uuid.UUID, shiftID *uuid.UUID, page, limit int) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo     repository.SaleRepository
	register repository.RegisterRepository
}

func NewSaleService(repo repository.SaleRepository, register repository.RegisterRepository) SaleService {
	return &saleService{repo: repo, register: register}
}

// Record completes a sale against an open shift. The ticket number, the sale
// row, and one sale movement per payment commit in a single transaction, so a
// concurrent close either sees all of the sale's cash or none of it.
func (s *saleService) Record(ctx context.Context, tenantID, userID uuid.UUID, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, apierror.Validation("invalid shift id")
	}
	if !req.Total.IsPositive() {
		return nil, apierror.Validation("total must be greater than zero")
	}

	paid := decimal.Zero
	for _, p := range req.Payments {
		if !model.ValidMethod(p.Method) {
			return nil, apierror.Validation("unknown payment method: " + p.Method)
		}
		if !p.Amount.IsPositive() {
			return nil, apierror.Validation("payment amounts must be greater than zero")
		}
		paid = paid.Add(p.Amount)
	}
	if paid.LessThan(req.Total) {
		return nil, apierror.Validation("payments do not cover the sale total")
	}
	change := paid.Sub(req.Total)

	sale := &model.Sale{
		TenantID:  tenantID,
		ShiftID:   shiftID,
		UserID:    userID,
		Total:     req.Total,
		Status:    model.SaleCompleted,
		CreatedAt: time.Now().UTC(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err := s.register.FindShiftForUpdateTx(tx, tenantID, shiftID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("shift not found")
		} else if err != nil {
			return err
		}
		if shift.Status != model.ShiftOpen {
			return apierror.InvalidState("no open shift to record the sale against")
		}

		ticket, err := s.repo.NextTicketNumber(tx)
		if err != nil {
			return err
		}
		sale.TicketNumber = ticket

		for _, p := range req.Payments {
			sale.Payments = append(sale.Payments, model.SalePayment{
				Method: p.Method,
				Amount: p.Amount,
			})
		}
		if err := s.repo.CreateTx(tx, sale); err != nil {
			return err
		}

		// One ledger movement per payment. Only cash-method payments move the
		// running drawer amount; the rest are informational for the breakdown.
		uid := userID
		ref := fmt.Sprintf("TICKET-%06d", ticket)
		for _, p := range req.Payments {
			method := p.Method
			mov := &model.CashMovement{
				TenantID:  tenantID,
				ShiftID:   shiftID,
				UserID:    &uid,
				Type:      model.MovementSale,
				Method:    &method,
				Amount:    p.Amount,
				Reference: &ref,
				CreatedAt: time.Now().UTC(),
			}
			if err := s.register.CreateMovementTx(tx, mov); err != nil {
				return err
			}
			shift.CurrentAmount = shift.CurrentAmount.Add(mov.CashDelta())
		}

		return s.register.UpdateShiftTx(tx, shift)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := saleToResponse(sale)
	resp.Change = change
	return &resp, nil
}

// Cancel flips the sale to cancelled. It deliberately does NOT touch the cash
// ledger: cash that was never collected never moved, and a refund that did
// happen must be posted by the operator as its own expense movement. The
// summary lists cancelled sales for supervisor review.
func (s *saleService) Cancel(ctx context.Context, tenantID uuid.UUID, saleID uuid.UUID, reason string) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDForUpdateTx(tx, tenantID, saleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("sale not found")
		} else if err != nil {
			return err
		}
		if sale.Status == model.SaleCancelled {
			return apierror.InvalidState("sale already cancelled")
		}

		now := time.Now().UTC()
		sale.Status = model.SaleCancelled
		sale.CancelReason = &reason
		sale.CancelledAt = &now
		return s.repo.UpdateTx(tx, sale)
	})
}

func (s *saleService) List(ctx context.Context, tenantID uuid.UUID, shiftID *uuid.UUID, page, limit int) (*dto.SaleListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	sales, total, err := s.repo.List(ctx, tenantID, shiftID, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func saleToResponse(s *model.Sale) dto.SaleResponse {
	payments := make([]dto.PaymentRequest, 0, len(s.Payments))
	for _, p := range s.Payments {
		payments = append(payments, dto.PaymentRequest{Method: p.Method, Amount: p.Amount})
	}
	return dto.SaleResponse{
		ID:           s.ID.String(),
		ShiftID:      s.ShiftID.String(),
		TicketNumber: s.TicketNumber,
		Total:        s.Total,
		Status:       s.Status,
		Payments:     payments,
		CreatedAt:    s.CreatedAt.UTC().Format(timeLayout),
	}
}
