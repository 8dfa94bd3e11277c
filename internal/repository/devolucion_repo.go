package repository

import (
	"context"

	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DevolucionRepository interface {
	CreateTx(tx *gorm.DB, d *model.Devolucion) error
	CreateItemTx(tx *gorm.DB, it *model.DevolucionItem) error
	FindByID(ctx context.Context, id uint) (*model.Devolucion, error)
	FindByIDTx(tx *gorm.DB, id uint) (*model.Devolucion, error)
	List(ctx context.Context, filter dto.DevolucionFilter) ([]model.Devolucion, int64, error)
	UpdateHeaderTx(tx *gorm.DB, d *model.Devolucion) error
	DeleteItemsTx(tx *gorm.DB, devolucionID uint) error
	DeleteTx(tx *gorm.DB, id uint) error

	// ReturnedQtyTx is Σ cantidad already returned for (venta, producto)
	// across every return of the sale.
	ReturnedQtyTx(tx *gorm.DB, ventaID, productoID uint) (int, error)

	DB() *gorm.DB
}

type devolucionRepo struct{ db *gorm.DB }

func NewDevolucionRepository(db *gorm.DB) DevolucionRepository { return &devolucionRepo{db: db} }

func (r *devolucionRepo) DB() *gorm.DB { return r.db }

func (r *devolucionRepo) CreateTx(tx *gorm.DB, d *model.Devolucion) error {
	return tx.Omit(clause.Associations).Create(d).Error
}

func (r *devolucionRepo) CreateItemTx(tx *gorm.DB, it *model.DevolucionItem) error {
	return tx.Create(it).Error
}

func (r *devolucionRepo) FindByID(ctx context.Context, id uint) (*model.Devolucion, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *devolucionRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Devolucion, error) {
	var d model.Devolucion
	err := tx.Preload("Items", orderByID).First(&d, id).Error
	return &d, err
}

func (r *devolucionRepo) List(ctx context.Context, filter dto.DevolucionFilter) ([]model.Devolucion, int64, error) {
	var rows []model.Devolucion
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Devolucion{})
	if filter.VentaID != 0 {
		q = q.Where("venta_id = ?", filter.VentaID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items", orderByID).
		Order("fecha DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *devolucionRepo) UpdateHeaderTx(tx *gorm.DB, d *model.Devolucion) error {
	return tx.Model(&model.Devolucion{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"reponer_stock": d.ReponerStock,
		"detalle":       d.Detalle,
	}).Error
}

func (r *devolucionRepo) DeleteItemsTx(tx *gorm.DB, devolucionID uint) error {
	return tx.Where("devolucion_id = ?", devolucionID).Delete(&model.DevolucionItem{}).Error
}

func (r *devolucionRepo) DeleteTx(tx *gorm.DB, id uint) error {
	if err := r.DeleteItemsTx(tx, id); err != nil {
		return err
	}
	return tx.Delete(&model.Devolucion{}, id).Error
}

func (r *devolucionRepo) ReturnedQtyTx(tx *gorm.DB, ventaID, productoID uint) (int, error) {
	var n int64
	err := tx.Table("devolucion_items AS di").
		Joins("JOIN devoluciones d ON d.id = di.devolucion_id").
		Select("COALESCE(SUM(di.cantidad), 0)").
		Where("d.venta_id = ? AND di.producto_id = ?", ventaID, productoID).
		Scan(&n).Error
	return int(n), err
}
