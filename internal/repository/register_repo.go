package repository

import (
	"context"

	"github.com/Mike861205/cajavscode-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterRepository persists shifts and their movement ledger. Methods with a
// Tx suffix (or a tx parameter) run against the caller's transaction; a nil tx
// falls back to the base connection, which lets the service layer run unit
// tests against in-memory fakes without a database.
type RegisterRepository interface {
	DB() *gorm.DB

	CreateShiftTx(tx *gorm.DB, s *model.RegisterShift) error
	UpdateShiftTx(tx *gorm.DB, s *model.RegisterShift) error
	// FindOpenShiftTx locks the open shift row for (tenant, user), if any.
	FindOpenShiftTx(tx *gorm.DB, tenantID, userID uuid.UUID) (*model.RegisterShift, error)
	// FindShiftForUpdateTx locks the shift row so concurrent close attempts
	// serialize: the loser re-reads status=closed and fails cleanly.
	FindShiftForUpdateTx(tx *gorm.DB, tenantID, shiftID uuid.UUID) (*model.RegisterShift, error)

	FindShiftByID(ctx context.Context, tenantID, shiftID uuid.UUID) (*model.RegisterShift, error)
	FindOpenShiftByUser(ctx context.Context, tenantID, userID uuid.UUID) (*model.RegisterShift, error)
	ListClosedShifts(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, page, limit int) ([]model.RegisterShift, int64, error)
	// ListPendingReports returns closed shifts whose report never made it out,
	// oldest first, so the retry cron can re-enqueue them.
	ListPendingReports(ctx context.Context, limit int) ([]model.RegisterShift, error)

	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	DeleteMovementTx(tx *gorm.DB, id uuid.UUID) error
	FindMovementByID(ctx context.Context, tenantID, movementID uuid.UUID) (*model.CashMovement, error)
	ListMovements(ctx context.Context, tenantID, shiftID uuid.UUID) ([]model.CashMovement, error)

	SumMovementsByType(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID) (map[string]decimal.Decimal, error)
	SumSalesByMethod(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID) (map[string]decimal.Decimal, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) DB() *gorm.DB { return r.db }

func (r *registerRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *registerRepo) CreateShiftTx(tx *gorm.DB, s *model.RegisterShift) error {
	return r.conn(tx).Create(s).Error
}

func (r *registerRepo) UpdateShiftTx(tx *gorm.DB, s *model.RegisterShift) error {
	return r.conn(tx).Save(s).Error
}

func (r *registerRepo) FindOpenShiftTx(tx *gorm.DB, tenantID, userID uuid.UUID) (*model.RegisterShift, error) {
	var s model.RegisterShift
	err := r.conn(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND user_id = ? AND status = ?", tenantID, userID, model.ShiftOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) FindShiftForUpdateTx(tx *gorm.DB, tenantID, shiftID uuid.UUID) (*model.RegisterShift, error) {
	var s model.RegisterShift
	err := r.conn(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, shiftID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) FindShiftByID(ctx context.Context, tenantID, shiftID uuid.UUID) (*model.RegisterShift, error) {
	var s model.RegisterShift
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&s, "id = ?", shiftID).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) FindOpenShiftByUser(ctx context.Context, tenantID, userID uuid.UUID) (*model.RegisterShift, error) {
	var s model.RegisterShift
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND status = ?", tenantID, userID, model.ShiftOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) ListClosedShifts(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, page, limit int) ([]model.RegisterShift, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.RegisterShift{}).
		Where("tenant_id = ? AND status = ?", tenantID, model.ShiftClosed)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var shifts []model.RegisterShift
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&shifts).Error
	return shifts, total, err
}

func (r *registerRepo) ListPendingReports(ctx context.Context, limit int) ([]model.RegisterShift, error) {
	var shifts []model.RegisterShift
	err := r.db.WithContext(ctx).
		Where("status = ? AND report_status = ?", model.ShiftClosed, model.ReportPending).
		Order("closed_at ASC").
		Limit(limit).
		Find(&shifts).Error
	return shifts, err
}

func (r *registerRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return r.conn(tx).Create(m).Error
}

func (r *registerRepo) DeleteMovementTx(tx *gorm.DB, id uuid.UUID) error {
	res := r.conn(tx).Delete(&model.CashMovement{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	// A zero-row delete means the movement vanished between the caller's read
	// and this transaction (lost reversal race). Surface it so the caller does
	// not roll the movement's contribution out of the balance twice.
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *registerRepo) FindMovementByID(ctx context.Context, tenantID, movementID uuid.UUID) (*model.CashMovement, error) {
	var m model.CashMovement
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&m, "id = ?", movementID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *registerRepo) ListMovements(ctx context.Context, tenantID, shiftID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shift_id = ?", tenantID, shiftID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *registerRepo) SumMovementsByType(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Type  string
		Total decimal.Decimal
	}
	err := r.conn(tx).WithContext(ctx).Model(&model.CashMovement{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("shift_id = ?", shiftID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Type] = row.Total
	}
	return sums, nil
}

func (r *registerRepo) SumSalesByMethod(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Method string
		Total  decimal.Decimal
	}
	err := r.conn(tx).WithContext(ctx).Model(&model.CashMovement{}).
		Select("COALESCE(method, 'other') AS method, COALESCE(SUM(amount), 0) AS total").
		Where("shift_id = ? AND type = ?", shiftID, model.MovementSale).
		Group("method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Method] = row.Total
	}
	return sums, nil
}
