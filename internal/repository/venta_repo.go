package repository

import (
	"context"

	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	CreateItemTx(tx *gorm.DB, it *model.VentaItem) error
	FindByID(ctx context.Context, id uint) (*model.Venta, error)
	FindForUpdateTx(tx *gorm.DB, id uint) (*model.Venta, error)
	FindWithItemsTx(tx *gorm.DB, id uint) (*model.Venta, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	UpdateHeaderTx(tx *gorm.DB, v *model.Venta) error
	UpdatePagado(ctx context.Context, id uint, pagado bool) (int64, error)
	DeleteTx(tx *gorm.DB, id uint) error

	// SoldQtyTx is Σ cantidad of the sale's lines for one product.
	SoldQtyTx(tx *gorm.DB, ventaID, productoID uint) (int, error)
	// FirstItemTx is the lowest-id line of the sale for the product.
	FirstItemTx(tx *gorm.DB, ventaID, productoID uint) (*model.VentaItem, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

// CreateTx inserts the header only; lines are written one by one after their
// stock check.
func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Omit(clause.Associations).Create(v).Error
}

func (r *ventaRepo) CreateItemTx(tx *gorm.DB, it *model.VentaItem) error {
	return tx.Create(it).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uint) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items", orderByID).First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) FindForUpdateTx(tx *gorm.DB, id uint) (*model.Venta, error) {
	var v model.Venta
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) FindWithItemsTx(tx *gorm.DB, id uint) (*model.Venta, error) {
	var v model.Venta
	err := tx.Preload("Items", orderByID).First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.Fecha != "" {
		q = q.Where("DATE(fecha) = ?", filter.Fecha)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", orderByID).
		Order("fecha DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}

func (r *ventaRepo) UpdateHeaderTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Model(&model.Venta{}).Where("id = ?", v.ID).Updates(map[string]interface{}{
		"total_sin_descuento": v.TotalSinDescuento,
		"descuento":           v.Descuento,
		"total":               v.Total,
		"cliente_id":          v.ClienteID,
		"usuario_id":          v.UsuarioID,
		"forma_pago":          v.FormaPago,
		"pagado":              v.Pagado,
	}).Error
}

func (r *ventaRepo) UpdatePagado(ctx context.Context, id uint, pagado bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Update("pagado", pagado)
	return res.RowsAffected, res.Error
}

// DeleteTx removes the sale, its lines and every return referencing it.
// Deletes are explicit so SQLite without foreign_keys behaves like Postgres.
func (r *ventaRepo) DeleteTx(tx *gorm.DB, id uint) error {
	devoluciones := tx.Model(&model.Devolucion{}).Select("id").Where("venta_id = ?", id)
	if err := tx.Where("devolucion_id IN (?)", devoluciones).Delete(&model.DevolucionItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("venta_id = ?", id).Delete(&model.Devolucion{}).Error; err != nil {
		return err
	}
	if err := tx.Where("venta_id = ?", id).Delete(&model.VentaItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Venta{}, id).Error
}

func (r *ventaRepo) SoldQtyTx(tx *gorm.DB, ventaID, productoID uint) (int, error) {
	var n int64
	err := tx.Model(&model.VentaItem{}).
		Select("COALESCE(SUM(cantidad), 0)").
		Where("venta_id = ? AND producto_id = ?", ventaID, productoID).
		Scan(&n).Error
	return int(n), err
}

func (r *ventaRepo) FirstItemTx(tx *gorm.DB, ventaID, productoID uint) (*model.VentaItem, error) {
	var it model.VentaItem
	err := tx.Where("venta_id = ? AND producto_id = ?", ventaID, productoID).
		Order("id ASC").First(&it).Error
	return &it, err
}

func orderByID(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
