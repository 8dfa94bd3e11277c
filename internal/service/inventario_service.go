package service

import (
	"context"
	"time"

	"ventaspos/internal/dto"
	"ventaspos/internal/repository"
)

// InventarioService answers stock questions: low-stock alerts and the
// movement audit trail.
type InventarioService interface {
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
}

type inventarioService struct {
	repo    repository.ProductoRepository
	movRepo repository.MovimientoStockRepository
}

func NewInventarioService(repo repository.ProductoRepository, movRepo repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{repo: repo, movRepo: movRepo}
}

// ObtenerAlertas lists active products at or below their stock_bajo threshold.
func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.repo.ListStockBajo(ctx)
	if err != nil {
		return nil, traducirError(err)
	}
	out := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		out = append(out, dto.AlertaStockResponse{
			ProductoID:  p.ID,
			Nombre:      p.Nombre,
			Codigo:      p.Codigo,
			StockActual: p.StockActual,
			StockBajo:   p.StockBajo,
			Faltante:    p.StockBajo - p.StockActual,
		})
	}
	return out, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	if err := validarRango(filter.Desde, filter.Hasta); err != nil {
		return nil, err
	}
	movs, total, err := s.movRepo.List(ctx, filter)
	if err != nil {
		return nil, traducirError(err)
	}
	resp := &dto.MovimientoListResponse{
		Data:  make([]dto.MovimientoStockResponse, 0, len(movs)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, m := range movs {
		resp.Data = append(resp.Data, dto.MovimientoStockResponse{
			ID:            m.ID,
			ProductoID:    m.ProductoID,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			ReferenciaID:  m.ReferenciaID,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}
