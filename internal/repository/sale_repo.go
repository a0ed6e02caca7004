package repository

import (
	"context"

	"github.com/Mike861205/cajavscode-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, s *model.Sale) error
	UpdateTx(tx *gorm.DB, s *model.Sale) error
	// NextTicketNumber pulls the next value from the global ticket sequence.
	NextTicketNumber(tx *gorm.DB) (int64, error)
	FindByID(ctx context.Context, tenantID, saleID uuid.UUID) (*model.Sale, error)
	FindByIDForUpdateTx(tx *gorm.DB, tenantID, saleID uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, tenantID uuid.UUID, shiftID *uuid.UUID, page, limit int) ([]model.Sale, int64, error)
	ListCancelledByShift(ctx context.Context, tenantID, shiftID uuid.UUID) ([]model.Sale, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return r.conn(tx).Create(s).Error
}

func (r *saleRepo) UpdateTx(tx *gorm.DB, s *model.Sale) error {
	return r.conn(tx).Save(s).Error
}

func (r *saleRepo) NextTicketNumber(tx *gorm.DB) (int64, error) {
	var n int64
	err := r.conn(tx).Raw("SELECT nextval('sales_ticket_seq')").Scan(&n).Error
	return n, err
}

func (r *saleRepo) FindByID(ctx context.Context, tenantID, saleID uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("tenant_id = ?", tenantID).
		First(&s, "id = ?", saleID).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) FindByIDForUpdateTx(tx *gorm.DB, tenantID, saleID uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.conn(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&s, "id = ?", saleID).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, tenantID uuid.UUID, shiftID *uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("tenant_id = ?", tenantID)
	if shiftID != nil {
		q = q.Where("shift_id = ?", *shiftID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []model.Sale
	err := q.Preload("Payments").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) ListCancelledByShift(ctx context.Context, tenantID, shiftID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shift_id = ? AND status = ?", tenantID, shiftID, model.SaleCancelled).
		Order("cancelled_at ASC").
		Find(&sales).Error
	return sales, err
}
