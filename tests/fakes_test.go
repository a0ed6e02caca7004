package tests

// In-memory repository fakes. The service layer runs every write through
// runTx, which calls the callback with a nil *gorm.DB when the repository
// reports no base connection — so these fakes let the domain logic run
// without a database. The register fake emulates the partial unique index
// on open shifts by rejecting a second open row with gorm.ErrDuplicatedKey.

import (
	"context"
	"sync"
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/model"
	"github.com/Mike861205/cajavscode-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── RegisterRepository fake ──────────────────────────────────────────────────

type memRegisterRepo struct {
	mu        sync.Mutex
	shifts    map[uuid.UUID]*model.RegisterShift
	movements []model.CashMovement
}

func newMemRegisterRepo() *memRegisterRepo {
	return &memRegisterRepo{shifts: make(map[uuid.UUID]*model.RegisterShift)}
}

func (r *memRegisterRepo) DB() *gorm.DB { return nil }

func (r *memRegisterRepo) CreateShiftTx(_ *gorm.DB, s *model.RegisterShift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Status == model.ShiftOpen {
		for _, existing := range r.shifts {
			if existing.TenantID == s.TenantID && existing.UserID == s.UserID && existing.Status == model.ShiftOpen {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.shifts[s.ID] = &cp
	return nil
}

func (r *memRegisterRepo) UpdateShiftTx(_ *gorm.DB, s *model.RegisterShift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.shifts[s.ID] = &cp
	return nil
}

func (r *memRegisterRepo) FindOpenShiftTx(_ *gorm.DB, tenantID, userID uuid.UUID) (*model.RegisterShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.TenantID == tenantID && s.UserID == userID && s.Status == model.ShiftOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRegisterRepo) FindShiftForUpdateTx(_ *gorm.DB, tenantID, shiftID uuid.UUID) (*model.RegisterShift, error) {
	return r.findShift(tenantID, shiftID)
}

func (r *memRegisterRepo) FindShiftByID(_ context.Context, tenantID, shiftID uuid.UUID) (*model.RegisterShift, error) {
	return r.findShift(tenantID, shiftID)
}

func (r *memRegisterRepo) findShift(tenantID, shiftID uuid.UUID) (*model.RegisterShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok || s.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memRegisterRepo) FindOpenShiftByUser(_ context.Context, tenantID, userID uuid.UUID) (*model.RegisterShift, error) {
	return r.FindOpenShiftTx(nil, tenantID, userID)
}

func (r *memRegisterRepo) ListClosedShifts(_ context.Context, tenantID uuid.UUID, userID *uuid.UUID, page, limit int) ([]model.RegisterShift, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.RegisterShift
	for _, s := range r.shifts {
		if s.TenantID != tenantID || s.Status != model.ShiftClosed {
			continue
		}
		if userID != nil && s.UserID != *userID {
			continue
		}
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memRegisterRepo) ListPendingReports(_ context.Context, limit int) ([]model.RegisterShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RegisterShift
	for _, s := range r.shifts {
		if s.Status == model.ShiftClosed && s.ReportStatus == model.ReportPending {
			out = append(out, *s)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memRegisterRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

// Mirrors the real repository: a delete that matches no row reports NotFound.
func (r *memRegisterRepo) DeleteMovementTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.movements {
		if m.ID == id {
			r.movements = append(r.movements[:i], r.movements[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memRegisterRepo) FindMovementByID(_ context.Context, tenantID, movementID uuid.UUID) (*model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ID == movementID && m.TenantID == tenantID {
			cp := m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRegisterRepo) ListMovements(_ context.Context, tenantID, shiftID uuid.UUID) ([]model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.ShiftID == shiftID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRegisterRepo) SumMovementsByType(_ context.Context, _ *gorm.DB, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, m := range r.movements {
		if m.ShiftID == shiftID {
			sums[m.Type] = sums[m.Type].Add(m.Amount)
		}
	}
	return sums, nil
}

func (r *memRegisterRepo) SumSalesByMethod(_ context.Context, _ *gorm.DB, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, m := range r.movements {
		if m.ShiftID != shiftID || m.Type != model.MovementSale {
			continue
		}
		method := model.MethodOther
		if m.Method != nil {
			method = *m.Method
		}
		sums[method] = sums[method].Add(m.Amount)
	}
	return sums, nil
}

var _ repository.RegisterRepository = (*memRegisterRepo)(nil)

// ── SaleRepository fake ──────────────────────────────────────────────────────

type memSaleRepo struct {
	mu         sync.Mutex
	sales      map[uuid.UUID]*model.Sale
	nextTicket int64
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *memSaleRepo) DB() *gorm.DB { return nil }

func (r *memSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Payments {
		if s.Payments[i].ID == uuid.Nil {
			s.Payments[i].ID = uuid.New()
		}
		s.Payments[i].SaleID = s.ID
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *memSaleRepo) UpdateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *memSaleRepo) NextTicketNumber(_ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *memSaleRepo) FindByID(_ context.Context, tenantID, saleID uuid.UUID) (*model.Sale, error) {
	return r.findSale(tenantID, saleID)
}

func (r *memSaleRepo) FindByIDForUpdateTx(_ *gorm.DB, tenantID, saleID uuid.UUID) (*model.Sale, error) {
	return r.findSale(tenantID, saleID)
}

func (r *memSaleRepo) findSale(tenantID, saleID uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok || s.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSaleRepo) List(_ context.Context, tenantID uuid.UUID, shiftID *uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Sale
	for _, s := range r.sales {
		if s.TenantID != tenantID {
			continue
		}
		if shiftID != nil && s.ShiftID != *shiftID {
			continue
		}
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memSaleRepo) ListCancelledByShift(_ context.Context, tenantID, shiftID uuid.UUID) ([]model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.ShiftID == shiftID && s.Status == model.SaleCancelled {
			out = append(out, *s)
		}
	}
	return out, nil
}

var _ repository.SaleRepository = (*memSaleRepo)(nil)

// ── UserRepository fake ──────────────────────────────────────────────────────

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) List(_ context.Context, tenantID uuid.UUID) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) SoftDelete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok && u.TenantID == tenantID {
		u.Active = false
	}
	return nil
}

var _ repository.UserRepository = (*memUserRepo)(nil)

// ── TenantRepository fake ────────────────────────────────────────────────────

type memTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*model.Tenant
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{tenants: make(map[uuid.UUID]*model.Tenant)}
}

func (r *memTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTenantRepo) Create(_ context.Context, t *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

var _ repository.TenantRepository = (*memTenantRepo)(nil)

// ── DenominationRepository fake ──────────────────────────────────────────────

type memDenomRepo struct {
	denoms []model.Denomination
}

func newMemDenomRepo() *memDenomRepo {
	return &memDenomRepo{denoms: model.DefaultMXNDenominations()}
}

func (r *memDenomRepo) ListByCurrency(_ context.Context, currency string) ([]model.Denomination, error) {
	var out []model.Denomination
	for _, d := range r.denoms {
		if d.Currency == currency && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDenomRepo) Seed(_ context.Context, denoms []model.Denomination) error {
	r.denoms = append(r.denoms, denoms...)
	return nil
}

var _ repository.DenominationRepository = (*memDenomRepo)(nil)
