package service

import (
	"context"
	"errors"
	"strings"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"
	"ventaspos/internal/repository"

	"gorm.io/gorm"
)

// CategoriaService manages product categories. Categories are deactivated,
// never deleted, so product references stay valid.
type CategoriaService interface {
	Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.CategoriaResponse, error)
	Listar(ctx context.Context, filter dto.CategoriaFilter) ([]dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarCategoriaRequest) (*dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, id uint) error
}

type categoriaService struct {
	repo repository.CategoriaRepository
}

func NewCategoriaService(repo repository.CategoriaRepository) CategoriaService {
	return &categoriaService{repo: repo}
}

func mapCategoria(c *model.Categoria) *dto.CategoriaResponse {
	return &dto.CategoriaResponse{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Activo:      c.Activo,
	}
}

func (s *categoriaService) Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, apierror.Validation("nombre", "nombre es requerido")
	}
	if err := s.nombreLibre(ctx, nombre, 0); err != nil {
		return nil, err
	}

	c := &model.Categoria{
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, traducirError(err)
	}
	return mapCategoria(c), nil
}

func (s *categoriaService) ObtenerPorID(ctx context.Context, id uint) (*dto.CategoriaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "categoria", id)
	}
	return mapCategoria(c), nil
}

func (s *categoriaService) Listar(ctx context.Context, filter dto.CategoriaFilter) ([]dto.CategoriaResponse, error) {
	list, err := s.repo.List(ctx, filter.Activo)
	if err != nil {
		return nil, traducirError(err)
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for i := range list {
		result = append(result, *mapCategoria(&list[i]))
	}
	return result, nil
}

func (s *categoriaService) Actualizar(ctx context.Context, id uint, req dto.ActualizarCategoriaRequest) (*dto.CategoriaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "categoria", id)
	}

	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, apierror.Validation("nombre", "nombre es requerido")
		}
		if !strings.EqualFold(nombre, c.Nombre) {
			if err := s.nombreLibre(ctx, nombre, id); err != nil {
				return nil, err
			}
		}
		c.Nombre = nombre
	}
	if req.Descripcion != nil {
		c.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, traducirError(err)
	}
	return mapCategoria(c), nil
}

func (s *categoriaService) Desactivar(ctx context.Context, id uint) error {
	n, err := s.repo.Desactivar(ctx, id)
	if err != nil {
		return traducirError(err)
	}
	if n == 0 {
		return apierror.NotFound("categoria", id)
	}
	return nil
}

// nombreLibre rejects a name already taken by another category, ignoring case.
func (s *categoriaService) nombreLibre(ctx context.Context, nombre string, excluirID uint) error {
	existing, err := s.repo.FindByNombre(ctx, nombre)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return traducirError(err)
	}
	if existing.ID != excluirID {
		return apierror.Validationf("nombre", "Ya existe una categoria con nombre %s", existing.Nombre)
	}
	return nil
}
