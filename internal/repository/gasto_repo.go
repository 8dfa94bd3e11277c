package repository

import (
	"context"

	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GastoRepository interface {
	Create(ctx context.Context, g *model.Gasto) error
	FindByID(ctx context.Context, id uint) (*model.Gasto, error)
	// List returns one page plus the row count and amount sum of the whole
	// filtered set.
	List(ctx context.Context, filter dto.GastoFilter) ([]model.Gasto, int64, decimal.Decimal, error)
	Update(ctx context.Context, g *model.Gasto) error
	Delete(ctx context.Context, id uint) (int64, error)
}

type gastoRepo struct{ db *gorm.DB }

func NewGastoRepository(db *gorm.DB) GastoRepository { return &gastoRepo{db: db} }

func (r *gastoRepo) Create(ctx context.Context, g *model.Gasto) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *gastoRepo) FindByID(ctx context.Context, id uint) (*model.Gasto, error) {
	var g model.Gasto
	err := r.db.WithContext(ctx).First(&g, id).Error
	return &g, err
}

func (r *gastoRepo) List(ctx context.Context, filter dto.GastoFilter) ([]model.Gasto, int64, decimal.Decimal, error) {
	base := func() *gorm.DB {
		return entreFechas(r.db.WithContext(ctx).Model(&model.Gasto{}), "fecha", filter.Desde, filter.Hasta)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, decimal.Zero, err
	}
	var suma decimal.NullDecimal
	if err := base().Select("SUM(monto)").Row().Scan(&suma); err != nil {
		return nil, 0, decimal.Zero, err
	}

	var gastos []model.Gasto
	offset := (filter.Page - 1) * filter.Limit
	err := base().Order("fecha DESC, id DESC").Limit(filter.Limit).Offset(offset).Find(&gastos).Error
	return gastos, total, suma.Decimal, err
}

func (r *gastoRepo) Update(ctx context.Context, g *model.Gasto) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *gastoRepo) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.Gasto{}, id)
	return res.RowsAffected, res.Error
}
