package repository

import (
	"context"

	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"gorm.io/gorm"
)

type HistorialPrecioRepository interface {
	CreateTx(tx *gorm.DB, h *model.HistorialPrecio) error
	ListByProducto(ctx context.Context, productoID uint, filter dto.HistorialPrecioFilter) ([]model.HistorialPrecio, int64, error)
}

type historialPrecioRepository struct{ db *gorm.DB }

func NewHistorialPrecioRepository(db *gorm.DB) HistorialPrecioRepository {
	return &historialPrecioRepository{db: db}
}

func (r *historialPrecioRepository) CreateTx(tx *gorm.DB, h *model.HistorialPrecio) error {
	return tx.Create(h).Error
}

// ListByProducto pages one product's records newest first, optionally
// narrowed by motivo and by day range. Page and limit arrive normalized.
func (r *historialPrecioRepository) ListByProducto(
	ctx context.Context,
	productoID uint,
	filter dto.HistorialPrecioFilter,
) ([]model.HistorialPrecio, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.HistorialPrecio{}).Where("producto_id = ?", productoID)
	if filter.Motivo != "" {
		q = q.Where("motivo = ?", filter.Motivo)
	}
	q = entreFechas(q, "created_at", filter.Desde, filter.Hasta)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.HistorialPrecio
	offset := (filter.Page - 1) * filter.Limit
	if err := q.Order("id DESC").Limit(filter.Limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
