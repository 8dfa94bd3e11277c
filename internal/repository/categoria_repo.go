package repository

import (
	"context"

	"ventaspos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoriaRepository interface {
	Create(ctx context.Context, c *model.Categoria) error
	FindByID(ctx context.Context, id uint) (*model.Categoria, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Categoria, error)
	List(ctx context.Context, activo string) ([]model.Categoria, error)
	Update(ctx context.Context, c *model.Categoria) error
	Desactivar(ctx context.Context, id uint) (int64, error)

	// FindByIDTx takes a shared lock so the category cannot be deactivated
	// while a product is being linked to it.
	FindByIDTx(tx *gorm.DB, id uint) (*model.Categoria, error)
}

type categoriaRepo struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository { return &categoriaRepo{db: db} }

func (r *categoriaRepo) Create(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoriaRepo) FindByID(ctx context.Context, id uint) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

// FindByNombre matches case-insensitively; names are unique ignoring case.
func (r *categoriaRepo) FindByNombre(ctx context.Context, nombre string) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).Where("LOWER(nombre) = LOWER(?)", nombre).First(&c).Error
	return &c, err
}

func (r *categoriaRepo) List(ctx context.Context, activo string) ([]model.Categoria, error) {
	q := r.db.WithContext(ctx).Model(&model.Categoria{})
	switch activo {
	case "false":
		q = q.Where("activo = ?", false)
	case "all":
	default:
		q = q.Where("activo = ?", true)
	}
	var cats []model.Categoria
	err := q.Order("nombre ASC, id ASC").Find(&cats).Error
	return cats, err
}

func (r *categoriaRepo) Update(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoriaRepo) Desactivar(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Categoria{}).Where("id = ?", id).Update("activo", false)
	return res.RowsAffected, res.Error
}

func (r *categoriaRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Categoria, error) {
	var c model.Categoria
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&c, id).Error
	return &c, err
}
