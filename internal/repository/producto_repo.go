package repository

import (
	"context"

	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uint) (*model.Producto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListStockBajo(ctx context.Context) ([]model.Producto, error)
	Delete(ctx context.Context, id uint) (int64, error)

	// Used inside transactions; callers must pass the tx instance
	FindForUpdateTx(tx *gorm.DB, id uint) (*model.Producto, error)
	LockManyTx(tx *gorm.DB, ids []uint) (map[uint]*model.Producto, error)
	CodigoEnUsoTx(tx *gorm.DB, codigo string, excluirID uint) (bool, error)
	SaveTx(tx *gorm.DB, p *model.Producto) error

	// UpdateStockTx applies stock_actual = stock_actual + delta. It never
	// decides legality; callers check availability under the row lock.
	UpdateStockTx(tx *gorm.DB, id uint, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uint) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productoRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("codigo = ? AND activo = ?", codigo, true).First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = ?", false)
	case "all":
	default:
		q = q.Where("activo = ?", true)
	}
	if filter.Nombre != "" {
		q = q.Where("LOWER(nombre) LIKE LOWER(?)", "%"+filter.Nombre+"%")
	}
	if filter.CategoriaID != 0 {
		q = q.Where("categoria_id = ?", filter.CategoriaID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC, id ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListStockBajo(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = ? AND stock_actual <= stock_bajo", true).
		Order("stock_actual ASC, id ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.Producto{}, id)
	return res.RowsAffected, res.Error
}

func (r *productoRepo) FindForUpdateTx(tx *gorm.DB, id uint) (*model.Producto, error) {
	var p model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	return &p, err
}

// LockManyTx locks every listed product in ascending id order, so two sales
// touching the same products always acquire their locks in the same order.
// Missing ids are simply absent from the result.
func (r *productoRepo) LockManyTx(tx *gorm.DB, ids []uint) (map[uint]*model.Producto, error) {
	out := make(map[uint]*model.Producto, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var productos []model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&productos).Error
	if err != nil {
		return nil, err
	}
	for i := range productos {
		out[productos[i].ID] = &productos[i]
	}
	return out, nil
}

func (r *productoRepo) CodigoEnUsoTx(tx *gorm.DB, codigo string, excluirID uint) (bool, error) {
	var n int64
	err := tx.Model(&model.Producto{}).Where("codigo = ? AND id <> ?", codigo, excluirID).Count(&n).Error
	return n > 0, err
}

// SaveTx writes every column, so nil pointers clear nullable fields.
func (r *productoRepo) SaveTx(tx *gorm.DB, p *model.Producto) error {
	return tx.Save(p).Error
}

func (r *productoRepo) UpdateStockTx(tx *gorm.DB, id uint, delta int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta)).Error
}
