package repository

import (
	"context"

	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClienteRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Cliente, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error)

	FindForUpdateTx(tx *gorm.DB, id uint) (*model.Cliente, error)
	// ExistsTx share-locks the client row, so a sale referencing it and a
	// concurrent delete serialize.
	ExistsTx(tx *gorm.DB, id uint) (bool, error)
	DocumentoEnUsoTx(tx *gorm.DB, documento string, excluirID uint) (bool, error)
	TieneVentasTx(tx *gorm.DB, id uint) (bool, error)
	SaveTx(tx *gorm.DB, c *model.Cliente) error
	DeleteTx(tx *gorm.DB, id uint) error

	DB() *gorm.DB
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) DB() *gorm.DB { return r.db }

func (r *clienteRepo) FindByID(ctx context.Context, id uint) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Cliente{})
	if filter.Nombre != "" {
		q = q.Where("LOWER(nombre) LIKE LOWER(?)", "%"+filter.Nombre+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clientes []model.Cliente
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC, id ASC").Limit(filter.Limit).Offset(offset).Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) FindForUpdateTx(tx *gorm.DB, id uint) (*model.Cliente, error) {
	var c model.Cliente
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
	return &c, err
}

func (r *clienteRepo) ExistsTx(tx *gorm.DB, id uint) (bool, error) {
	var ids []uint
	err := tx.Model(&model.Cliente{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

func (r *clienteRepo) DocumentoEnUsoTx(tx *gorm.DB, documento string, excluirID uint) (bool, error) {
	var n int64
	err := tx.Model(&model.Cliente{}).Where("documento = ? AND id <> ?", documento, excluirID).Count(&n).Error
	return n > 0, err
}

func (r *clienteRepo) TieneVentasTx(tx *gorm.DB, id uint) (bool, error) {
	var n int64
	err := tx.Model(&model.Venta{}).Where("cliente_id = ?", id).Count(&n).Error
	return n > 0, err
}

// SaveTx writes every column; PUT is a full replace.
func (r *clienteRepo) SaveTx(tx *gorm.DB, c *model.Cliente) error {
	return tx.Save(c).Error
}

func (r *clienteRepo) DeleteTx(tx *gorm.DB, id uint) error {
	return tx.Delete(&model.Cliente{}, id).Error
}
