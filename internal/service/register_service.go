package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/apierror"
	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/model"
	"github.com/Mike861205/cajavscode-sub001/internal/repository"
	"github.com/Mike861205/cajavscode-sub001/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RegisterService interface {
	Open(ctx context.Context, tenantID, userID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	Close(ctx context.Context, tenantID uuid.UUID, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error)
	PostMovement(ctx context.Context, tenantID, userID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	ReverseMovement(ctx context.Context, tenantID, movementID uuid.UUID) error
	Summary(ctx context.Context, tenantID, shiftID uuid.UUID) (*dto.ShiftSummary, error)
	Report(ctx context.Context, tenantID, shiftID uuid.UUID) (*dto.ClosingReport, error)
	Active(ctx context.Context, tenantID, userID uuid.UUID) (*dto.ShiftResponse, error)
	History(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, page, limit int) (*dto.ShiftListResponse, error)
	Denominations(ctx context.Context, tenantID uuid.UUID) ([]dto.DenominationResponse, error)
}

type registerService struct {
	repo       repository.RegisterRepository
	sales      repository.SaleRepository
	users      repository.UserRepository
	tenants    repository.TenantRepository
	denoms     repository.DenominationRepository
	dispatcher *worker.Dispatcher
	currency   string
}

func NewRegisterService(
	repo repository.RegisterRepository,
	sales repository.SaleRepository,
	users repository.UserRepository,
	tenants repository.TenantRepository,
	denoms repository.DenominationRepository,
	dispatcher *worker.Dispatcher,
	defaultCurrency string,
) RegisterService {
	return &registerService{
		repo:       repo,
		sales:      sales,
		users:      users,
		tenants:    tenants,
		denoms:     denoms,
		dispatcher: dispatcher,
		currency:   defaultCurrency,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// countSnapshot is the JSON shape persisted on the shift at close time.
type countSnapshot struct {
	Bills map[string]int  `json:"bills"`
	Coins decimal.Decimal `json:"coins"`
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *registerService) Open(ctx context.Context, tenantID, userID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, apierror.Validation("opening amount must not be negative")
	}

	shift := &model.RegisterShift{
		TenantID:      tenantID,
		UserID:        userID,
		OpeningAmount: req.OpeningAmount,
		CurrentAmount: req.OpeningAmount,
		Status:        model.ShiftOpen,
		ReportStatus:  model.ReportNone,
		OpenedAt:      time.Now().UTC(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Re-check inside the transaction; the partial unique index backstops
		// the race two concurrent opens cannot both win.
		if _, err := s.repo.FindOpenShiftTx(tx, tenantID, userID); err == nil {
			return apierror.Conflict("register already open")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := s.repo.CreateShiftTx(tx, shift); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Conflict("register already open")
			}
			return err
		}

		uid := userID
		opening := &model.CashMovement{
			TenantID: tenantID,
			ShiftID:  shift.ID,
			UserID:   &uid,
			Type:     model.MovementOpening,
			Amount:   req.OpeningAmount,
		}
		return s.repo.CreateMovementTx(tx, opening)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := shiftToResponse(shift)
	return &resp, nil
}

// ── Close ────────────────────────────────────────────────────────────────────
// Single-writer transition: the shift row is locked FOR UPDATE so at most one
// concurrent close succeeds; the loser re-reads status=closed and fails with
// InvalidStateError. A failure anywhere rolls the transaction back and leaves
// the shift open.

func (s *registerService) Close(ctx context.Context, tenantID uuid.UUID, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, apierror.Validation("invalid shift id")
	}
	if req.CountedCoins.IsNegative() {
		return nil, apierror.Validation("coins total must not be negative")
	}

	denoms, err := s.denominations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	bills, err := ParseBillCounts(req.CountedBills, denoms)
	if err != nil {
		return nil, err
	}

	var (
		shift   *model.RegisterShift
		summary dto.ShiftSummary
		recon   dto.ReconciliationResponse
	)
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err = s.repo.FindShiftForUpdateTx(tx, tenantID, shiftID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("shift not found")
		} else if err != nil {
			return err
		}
		if shift.Status != model.ShiftOpen {
			return apierror.InvalidState("shift already closed")
		}

		summary, err = s.buildSummary(ctx, tx, shift)
		if err != nil {
			return err
		}

		recon = Reconcile(summary.ExpectedBalance, BillsTotal(bills), req.CountedCoins)

		snapshot, err := json.Marshal(countSnapshot{Bills: req.CountedBills, Coins: req.CountedCoins})
		if err != nil {
			return err
		}
		snapshotStr := string(snapshot)

		now := time.Now().UTC()
		expected := summary.ExpectedBalance
		counted := recon.CountedTotal
		diff := recon.Difference
		shift.Status = model.ShiftClosed
		shift.ExpectedAmount = &expected
		shift.ClosedAmount = &counted
		shift.Difference = &diff
		shift.CountSnapshot = &snapshotStr
		shift.Notes = req.Notes
		shift.ReportStatus = model.ReportPending
		shift.ClosedAt = &now

		return s.repo.UpdateShiftTx(tx, shift)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Report rendering is queued only after the close is durably committed.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReport(ctx, worker.ReportJobPayload{
			TenantID: tenantID.String(),
			ShiftID:  shift.ID.String(),
		})
	}

	return &dto.CloseShiftResponse{
		Shift:          shiftToResponse(shift),
		Summary:        summary,
		Reconciliation: recon,
	}, nil
}

// ── PostMovement ─────────────────────────────────────────────────────────────

func (s *registerService) PostMovement(ctx context.Context, tenantID, userID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, apierror.Validation("invalid shift id")
	}
	if !model.ValidMovementType(req.Type) {
		return nil, apierror.Validation("unknown movement type")
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.Validation("amount must be greater than zero")
	}
	if req.Type == model.MovementSale {
		if req.Method == nil || !model.ValidMethod(*req.Method) {
			return nil, apierror.Validation("sale movements require a payment method")
		}
	}

	uid := userID
	mov := &model.CashMovement{
		TenantID:    tenantID,
		ShiftID:     shiftID,
		UserID:      &uid,
		Type:        req.Type,
		Method:      req.Method,
		Amount:      req.Amount,
		Reference:   req.Reference,
		Category:    req.Category,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err := s.repo.FindShiftForUpdateTx(tx, tenantID, shiftID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("shift not found")
		} else if err != nil {
			return err
		}
		if shift.Status != model.ShiftOpen {
			return apierror.InvalidState("cannot post a movement to a closed shift")
		}

		if err := s.repo.CreateMovementTx(tx, mov); err != nil {
			return err
		}

		shift.CurrentAmount = shift.CurrentAmount.Add(mov.CashDelta())
		return s.repo.UpdateShiftTx(tx, shift)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := movementToResponse(mov)
	return &resp, nil
}

// ── ReverseMovement ──────────────────────────────────────────────────────────
// Deletion is an explicit reversal, allowed only while the parent shift is
// open; closed periods keep their movement set frozen for audit.

func (s *registerService) ReverseMovement(ctx context.Context, tenantID, movementID uuid.UUID) error {
	mov, err := s.repo.FindMovementByID(ctx, tenantID, movementID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("movement not found")
	} else if err != nil {
		return err
	}
	if mov.Type == model.MovementOpening {
		return apierror.Validation("the opening movement cannot be reversed")
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err := s.repo.FindShiftForUpdateTx(tx, tenantID, mov.ShiftID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("shift not found")
		} else if err != nil {
			return err
		}
		if shift.Status != model.ShiftOpen {
			return apierror.InvalidState("cannot reverse a movement on a closed shift")
		}

		// The delete reports a miss when a concurrent reversal got here first;
		// in that case the balance was already adjusted by the winner.
		if err := s.repo.DeleteMovementTx(tx, mov.ID); errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("movement not found")
		} else if err != nil {
			return err
		}

		shift.CurrentAmount = shift.CurrentAmount.Sub(mov.CashDelta())
		return s.repo.UpdateShiftTx(tx, shift)
	})
}

// ── Summary ──────────────────────────────────────────────────────────────────

func (s *registerService) Summary(ctx context.Context, tenantID, shiftID uuid.UUID) (*dto.ShiftSummary, error) {
	shift, err := s.repo.FindShiftByID(ctx, tenantID, shiftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("shift not found")
	} else if err != nil {
		return nil, err
	}

	summary, err := s.buildSummary(ctx, nil, shift)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// buildSummary aggregates the ledger. Only the cash-method portion of sales
// feeds the expected balance: card/transfer/credit sales never touched the
// drawer. Cancelled sales are attached for display but are deliberately NOT
// netted out — a cash refund, if one happened, is posted by the operator as
// its own expense movement.
func (s *registerService) buildSummary(ctx context.Context, tx *gorm.DB, shift *model.RegisterShift) (dto.ShiftSummary, error) {
	sums, err := s.repo.SumMovementsByType(ctx, tx, shift.ID)
	if err != nil {
		return dto.ShiftSummary{}, err
	}
	methodSums, err := s.repo.SumSalesByMethod(ctx, tx, shift.ID)
	if err != nil {
		return dto.ShiftSummary{}, err
	}

	byMethod := dto.MethodBreakdown{
		Cash:     methodSums[model.MethodCash],
		Card:     methodSums[model.MethodCard],
		Transfer: methodSums[model.MethodTransfer],
		Credit:   methodSums[model.MethodCredit],
		Other:    methodSums[model.MethodOther],
	}
	byMethod.Total = byMethod.Cash.Add(byMethod.Card).Add(byMethod.Transfer).Add(byMethod.Credit).Add(byMethod.Other)

	expected := shift.OpeningAmount.
		Add(byMethod.Cash).
		Add(sums[model.MovementIncome]).
		Sub(sums[model.MovementExpense]).
		Sub(sums[model.MovementWithdrawal])

	summary := dto.ShiftSummary{
		ShiftID:          shift.ID.String(),
		OpeningAmount:    shift.OpeningAmount,
		TotalSales:       sums[model.MovementSale],
		TotalCashSales:   byMethod.Cash,
		TotalIncome:      sums[model.MovementIncome],
		TotalExpenses:    sums[model.MovementExpense],
		TotalWithdrawals: sums[model.MovementWithdrawal],
		ExpectedBalance:  expected,
		SalesByMethod:    byMethod,
		CancelledSales:   []dto.CancelledSaleItem{},
	}

	cancelled, err := s.sales.ListCancelledByShift(ctx, shift.TenantID, shift.ID)
	if err != nil {
		return dto.ShiftSummary{}, err
	}
	for _, c := range cancelled {
		item := dto.CancelledSaleItem{
			ID:           c.ID.String(),
			TicketNumber: c.TicketNumber,
			Total:        c.Total,
			Reason:       c.CancelReason,
		}
		if c.CancelledAt != nil {
			item.CancelledAt = c.CancelledAt.UTC().Format(timeLayout)
		}
		summary.CancelledSales = append(summary.CancelledSales, item)
	}

	return summary, nil
}

// ── Report ───────────────────────────────────────────────────────────────────

func (s *registerService) Report(ctx context.Context, tenantID, shiftID uuid.UUID) (*dto.ClosingReport, error) {
	shift, err := s.repo.FindShiftByID(ctx, tenantID, shiftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("shift not found")
	} else if err != nil {
		return nil, err
	}
	if shift.Status != model.ShiftClosed || shift.CountSnapshot == nil {
		return nil, apierror.InvalidState("shift is not closed yet")
	}

	var snapshot countSnapshot
	if err := json.Unmarshal([]byte(*shift.CountSnapshot), &snapshot); err != nil {
		return nil, err
	}

	denoms, err := s.denominations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	bills, err := ParseBillCounts(snapshot.Bills, denoms)
	if err != nil {
		return nil, err
	}

	summary, err := s.buildSummary(ctx, nil, shift)
	if err != nil {
		return nil, err
	}

	cashier := ""
	if user, err := s.users.FindByID(ctx, shift.UserID); err == nil {
		cashier = user.FullName
	}
	branch := ""
	currency := s.currency
	if tenant, err := s.tenants.FindByID(ctx, tenantID); err == nil {
		currency = tenant.Currency
		if tenant.BranchName != nil {
			branch = *tenant.BranchName
		} else {
			branch = tenant.Name
		}
	}

	report := BuildClosingReport(shift, summary, bills, snapshot.Coins, denoms, cashier, branch, currency)
	return &report, nil
}

// ── Active / History / Denominations ─────────────────────────────────────────

func (s *registerService) Active(ctx context.Context, tenantID, userID uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.repo.FindOpenShiftByUser(ctx, tenantID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("no open shift")
	} else if err != nil {
		return nil, err
	}
	resp := shiftToResponse(shift)
	return &resp, nil
}

func (s *registerService) History(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, page, limit int) (*dto.ShiftListResponse, error) {
	shifts, total, err := s.repo.ListClosedShifts(ctx, tenantID, userID, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		data = append(data, shiftToResponse(&shifts[i]))
	}
	return &dto.ShiftListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *registerService) Denominations(ctx context.Context, tenantID uuid.UUID) ([]dto.DenominationResponse, error) {
	denoms, err := s.denominations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.DenominationResponse, 0, len(denoms))
	for _, d := range denoms {
		resp = append(resp, dto.DenominationResponse{Value: d.Value, Label: d.Label})
	}
	return resp, nil
}

func (s *registerService) denominations(ctx context.Context, tenantID uuid.UUID) ([]model.Denomination, error) {
	currency := s.currency
	if tenant, err := s.tenants.FindByID(ctx, tenantID); err == nil {
		currency = tenant.Currency
	}
	return s.denoms.ListByCurrency(ctx, currency)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func shiftToResponse(s *model.RegisterShift) dto.ShiftResponse {
	resp := dto.ShiftResponse{
		ID:             s.ID.String(),
		UserID:         s.UserID.String(),
		OpeningAmount:  s.OpeningAmount,
		CurrentAmount:  s.CurrentAmount,
		ExpectedAmount: s.ExpectedAmount,
		ClosedAmount:   s.ClosedAmount,
		Difference:     s.Difference,
		Status:         s.Status,
		ReportStatus:   s.ReportStatus,
		Notes:          s.Notes,
		OpenedAt:       s.OpenedAt.UTC().Format(timeLayout),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.UTC().Format(timeLayout)
		resp.ClosedAt = &t
	}
	return resp
}

func movementToResponse(m *model.CashMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID.String(),
		ShiftID:     m.ShiftID.String(),
		Type:        m.Type,
		Method:      m.Method,
		Amount:      m.Amount,
		Reference:   m.Reference,
		Category:    m.Category,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC().Format(timeLayout),
	}
}
