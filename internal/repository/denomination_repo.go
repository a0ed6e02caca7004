package repository

import (
	"context"

	"github.com/Mike861205/cajavscode-sub001/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DenominationRepository interface {
	ListByCurrency(ctx context.Context, currency string) ([]model.Denomination, error)
	// Seed upserts the default denomination set; startup calls it idempotently.
	Seed(ctx context.Context, denoms []model.Denomination) error
}

type denominationRepo struct{ db *gorm.DB }

func NewDenominationRepository(db *gorm.DB) DenominationRepository {
	return &denominationRepo{db: db}
}

func (r *denominationRepo) ListByCurrency(ctx context.Context, currency string) ([]model.Denomination, error) {
	var denoms []model.Denomination
	err := r.db.WithContext(ctx).
		Where("currency = ? AND active = true", currency).
		Order("position ASC").
		Find(&denoms).Error
	return denoms, err
}

func (r *denominationRepo) Seed(ctx context.Context, denoms []model.Denomination) error {
	if len(denoms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "currency"}, {Name: "value"}},
			DoNothing: true,
		}).
		Create(&denoms).Error
}
