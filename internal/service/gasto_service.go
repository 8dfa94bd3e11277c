package service

import (
	"context"
	"time"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"
	"ventaspos/internal/pricing"
	"ventaspos/internal/repository"

	"github.com/rs/zerolog/log"
)

// GastoService records store expenses. Expenses never touch stock or the
// sale ledger.
type GastoService interface {
	Crear(ctx context.Context, usuarioID uint, req dto.GastoRequest) (*dto.GastoResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.GastoResponse, error)
	Listar(ctx context.Context, filter dto.GastoFilter) (*dto.GastoListResponse, error)
	Actualizar(ctx context.Context, id, usuarioID uint, req dto.GastoRequest) (*dto.GastoResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type gastoService struct {
	repo repository.GastoRepository
	now  func() time.Time
}

func NewGastoService(repo repository.GastoRepository) GastoService {
	return &gastoService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *gastoService) Crear(ctx context.Context, usuarioID uint, req dto.GastoRequest) (*dto.GastoResponse, error) {
	if err := validarGasto(usuarioID, req); err != nil {
		return nil, err
	}
	g := &model.Gasto{
		Fecha:       s.now(),
		Monto:       req.Monto,
		Descripcion: textoOpcional(req.Descripcion),
		UsuarioID:   usuarioID,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, traducirError(err)
	}
	log.Info().Uint("gasto_id", g.ID).Str("monto", g.Monto.String()).Msg("gasto registrado")
	return gastoToResponse(g), nil
}

func (s *gastoService) ObtenerPorID(ctx context.Context, id uint) (*dto.GastoResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "gasto", id)
	}
	return gastoToResponse(g), nil
}

func (s *gastoService) Listar(ctx context.Context, filter dto.GastoFilter) (*dto.GastoListResponse, error) {
	if err := validarRango(filter.Desde, filter.Hasta); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	gastos, total, suma, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, traducirError(err)
	}
	resp := &dto.GastoListResponse{
		Data:       make([]dto.GastoResponse, 0, len(gastos)),
		Total:      total,
		TotalMonto: suma.Round(2),
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	for i := range gastos {
		resp.Data = append(resp.Data, *gastoToResponse(&gastos[i]))
	}
	return resp, nil
}

// Actualizar replaces amount and description; the date stays and the
// caller becomes the recorded user.
func (s *gastoService) Actualizar(ctx context.Context, id, usuarioID uint, req dto.GastoRequest) (*dto.GastoResponse, error) {
	if err := validarGasto(usuarioID, req); err != nil {
		return nil, err
	}
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "gasto", id)
	}
	g.Monto = req.Monto
	g.Descripcion = textoOpcional(req.Descripcion)
	g.UsuarioID = usuarioID
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, traducirError(err)
	}
	return gastoToResponse(g), nil
}

func (s *gastoService) Eliminar(ctx context.Context, id uint) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return traducirError(err)
	}
	if n == 0 {
		return apierror.NotFound("gasto", id)
	}
	return nil
}

func validarGasto(usuarioID uint, req dto.GastoRequest) error {
	if usuarioID == 0 {
		return apierror.Validation("usuario_id", "usuario_id es requerido")
	}
	if !req.Monto.IsPositive() {
		return apierror.Validation("monto", "El monto debe ser mayor a 0")
	}
	return pricing.ValidarEscala("monto", req.Monto)
}

func gastoToResponse(g *model.Gasto) *dto.GastoResponse {
	return &dto.GastoResponse{
		ID:          g.ID,
		Fecha:       g.Fecha.Format(time.RFC3339),
		Monto:       g.Monto,
		Descripcion: g.Descripcion,
		UsuarioID:   g.UsuarioID,
	}
}
