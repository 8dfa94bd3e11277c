package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ventaspos/internal/apierror"
	"ventaspos/internal/cache"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"
	"ventaspos/internal/notify"
	"ventaspos/internal/pricing"
	"ventaspos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoService is the catalog store: product CRUD with derived margin,
// manual stock adjustments and the cached public price check.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.ProductoResponse, error)
	ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uint) error
	AjustarStock(ctx context.Context, id uint, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
	HistorialPrecios(ctx context.Context, id uint, filter dto.HistorialPrecioFilter) (*dto.HistorialPrecioListResponse, error)
}

type productoService struct {
	repo          repository.ProductoRepository
	movRepo       repository.MovimientoStockRepository
	historialRepo repository.HistorialPrecioRepository
	categoriaRepo repository.CategoriaRepository
	precios       cache.PrecioCache
	precioTTL     time.Duration
	eventos       EventSink
}

func NewProductoService(
	repo repository.ProductoRepository,
	movRepo repository.MovimientoStockRepository,
	historialRepo repository.HistorialPrecioRepository,
	categoriaRepo repository.CategoriaRepository,
	precios cache.PrecioCache,
	precioTTL time.Duration,
	eventos EventSink,
) ProductoService {
	if precios == nil {
		precios = cache.NoopPrecioCache{}
	}
	return &productoService{
		repo:          repo,
		movRepo:       movRepo,
		historialRepo: historialRepo,
		categoriaRepo: categoriaRepo,
		precios:       precios,
		precioTTL:     precioTTL,
		eventos:       eventos,
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:         strings.TrimSpace(req.Nombre),
		Codigo:         strings.TrimSpace(req.Codigo),
		Descripcion:    req.Descripcion,
		StockActual:    req.StockActual,
		StockBajo:      req.StockBajo,
		PrecioCosto:    req.PrecioCosto,
		PrecioUnitario: req.PrecioUnitario,
		Activo:         true,
		ImageURL:       req.ImageURL,
		CategoriaID:    req.CategoriaID,
	}
	if req.Activo != nil {
		p.Activo = *req.Activo
	}
	if err := validarProducto(p); err != nil {
		return nil, err
	}
	p.Margen = pricing.MarginPct(p.PrecioCosto, p.PrecioUnitario)

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.verificarCodigo(tx, p.Codigo, 0); err != nil {
			return err
		}
		if err := s.verificarCategoria(tx, p.CategoriaID); err != nil {
			return err
		}
		if err := s.repo.SaveTx(tx, p); err != nil {
			return err
		}
		if err := s.historialRepo.CreateTx(tx, &model.HistorialPrecio{
			ProductoID:    p.ID,
			CostoAntes:    decimal.Zero,
			CostoDespues:  p.PrecioCosto,
			PrecioAntes:   decimal.Zero,
			PrecioDespues: p.PrecioUnitario,
			MargenDespues: p.Margen,
			Motivo:        model.MotivoPrecioAlta,
		}); err != nil {
			return err
		}
		if p.StockActual == 0 {
			return nil
		}
		ref := p.ID
		return s.movRepo.CreateTx(tx, &model.MovimientoStock{
			ProductoID:    p.ID,
			Tipo:          model.MovAjusteManual,
			Cantidad:      p.StockActual,
			StockAnterior: 0,
			StockNuevo:    p.StockActual,
			Motivo:        "Stock inicial",
			ReferenciaID:  &ref,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidarPrecio(ctx, p.Codigo)
	return productoToResponse(p), nil
}

// ── Lecturas ──────────────────────────────────────────────────────────────────

func (s *productoService) ObtenerPorID(ctx context.Context, id uint) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "producto", id)
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, traducirError(err)
	}

	resp := &dto.ProductoListResponse{
		Data:       make([]dto.ProductoResponse, 0, len(productos)),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}
	for i := range productos {
		resp.Data = append(resp.Data, *productoToResponse(&productos[i]))
	}
	return resp, nil
}

// ConsultarPrecio is read-through: cache hit, else the active product by code.
// Cache failures never fail the lookup.
func (s *productoService) ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error) {
	if cached, ok, err := s.precios.Get(ctx, codigo); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("precio cache: get failed")
	}

	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFoundBy("producto", "codigo", codigo)
		}
		return nil, traducirError(err)
	}

	resp := &dto.ConsultaPreciosResponse{
		Nombre:          p.Nombre,
		Codigo:          p.Codigo,
		PrecioUnitario:  p.PrecioUnitario,
		StockDisponible: p.StockActual,
	}
	if err := s.precios.Set(ctx, codigo, resp, s.precioTTL); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("precio cache: set failed")
	}
	return resp, nil
}

// HistorialPrecios pages the price records of a product, newest first.
// Motivo, when given, must be one of the recorded reasons.
func (s *productoService) HistorialPrecios(ctx context.Context, id uint, filter dto.HistorialPrecioFilter) (*dto.HistorialPrecioListResponse, error) {
	switch filter.Motivo {
	case "", model.MotivoPrecioAlta, model.MotivoPrecioManual:
	default:
		return nil, apierror.Validationf("motivo", "motivo desconocido %q", filter.Motivo)
	}
	if err := validarRango(filter.Desde, filter.Hasta); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "producto", id)
	}
	rows, total, err := s.historialRepo.ListByProducto(ctx, id, filter)
	if err != nil {
		return nil, traducirError(err)
	}
	resp := &dto.HistorialPrecioListResponse{
		Data:  make([]dto.HistorialPrecioResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, h := range rows {
		resp.Data = append(resp.Data, dto.HistorialPrecioResponse{
			ID:            h.ID,
			ProductoID:    h.ProductoID,
			CostoAntes:    h.CostoAntes,
			CostoDespues:  h.CostoDespues,
			PrecioAntes:   h.PrecioAntes,
			PrecioDespues: h.PrecioDespues,
			MargenDespues: h.MargenDespues,
			Motivo:        h.Motivo,
			CreatedAt:     h.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Load, patch and write happen under the row lock. Only fields present in the
// request are touched; explicit null clears Descripcion and ImageURL.

func (s *productoService) Actualizar(ctx context.Context, id uint, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	var (
		p           *model.Producto
		codigoAntes string
		stockCambio bool
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return notFoundOr(err, "producto", id)
		}
		antes := *p
		codigoAntes = antes.Codigo

		if err := aplicarPatch(p, req); err != nil {
			return err
		}
		if err := validarProducto(p); err != nil {
			return err
		}
		if p.Codigo != antes.Codigo {
			if err := s.verificarCodigo(tx, p.Codigo, p.ID); err != nil {
				return err
			}
		}
		if !mismaCategoria(p.CategoriaID, antes.CategoriaID) {
			if err := s.verificarCategoria(tx, p.CategoriaID); err != nil {
				return err
			}
		}
		p.Margen = pricing.MarginPct(p.PrecioCosto, p.PrecioUnitario)

		if err := s.repo.SaveTx(tx, p); err != nil {
			return err
		}

		if !p.PrecioCosto.Equal(antes.PrecioCosto) || !p.PrecioUnitario.Equal(antes.PrecioUnitario) {
			if err := s.historialRepo.CreateTx(tx, &model.HistorialPrecio{
				ProductoID:    p.ID,
				CostoAntes:    antes.PrecioCosto,
				CostoDespues:  p.PrecioCosto,
				PrecioAntes:   antes.PrecioUnitario,
				PrecioDespues: p.PrecioUnitario,
				MargenDespues: p.Margen,
				Motivo:        model.MotivoPrecioManual,
			}); err != nil {
				return err
			}
		}

		if p.StockActual != antes.StockActual {
			stockCambio = true
			ref := p.ID
			return s.movRepo.CreateTx(tx, &model.MovimientoStock{
				ProductoID:    p.ID,
				Tipo:          model.MovAjusteManual,
				Cantidad:      p.StockActual - antes.StockActual,
				StockAnterior: antes.StockActual,
				StockNuevo:    p.StockActual,
				Motivo:        "Actualizacion de producto",
				ReferenciaID:  &ref,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidarPrecio(ctx, codigoAntes, p.Codigo)
	if stockCambio {
		emitir(s.eventos, notify.StockActualizado(p.ID, p.StockActual))
	}
	return productoToResponse(p), nil
}

// aplicarPatch copies present fields into p. Null is rejected on columns
// that are not nullable.
func aplicarPatch(p *model.Producto, req dto.ActualizarProductoRequest) error {
	nulo := func(campo string) error {
		return apierror.Validationf(campo, "%s no puede ser nulo", campo)
	}

	if req.Nombre.Set {
		if req.Nombre.Nulo {
			return nulo("nombre")
		}
		p.Nombre = strings.TrimSpace(req.Nombre.Valor)
	}
	if req.Codigo.Set {
		if req.Codigo.Nulo {
			return nulo("codigo")
		}
		p.Codigo = strings.TrimSpace(req.Codigo.Valor)
	}
	if req.Descripcion.Set {
		p.Descripcion = req.Descripcion.Valor
	}
	if req.StockActual.Set {
		if req.StockActual.Nulo {
			return nulo("stock_actual")
		}
		p.StockActual = req.StockActual.Valor
	}
	if req.StockBajo.Set {
		if req.StockBajo.Nulo {
			return nulo("stock_bajo")
		}
		p.StockBajo = req.StockBajo.Valor
	}
	if req.PrecioCosto.Set {
		if req.PrecioCosto.Nulo {
			return nulo("precio_costo")
		}
		p.PrecioCosto = req.PrecioCosto.Valor
	}
	if req.PrecioUnitario.Set {
		if req.PrecioUnitario.Nulo {
			return nulo("precio_unitario")
		}
		p.PrecioUnitario = req.PrecioUnitario.Valor
	}
	if req.Activo.Set {
		if req.Activo.Nulo {
			return nulo("activo")
		}
		p.Activo = req.Activo.Valor
	}
	if req.ImageURL.Set {
		p.ImageURL = req.ImageURL.Valor
	}
	if req.CategoriaID.Set {
		p.CategoriaID = req.CategoriaID.Valor
	}
	return nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

// Eliminar hard-deletes the product. Sale and return lines keep their
// snapshots and are not touched.
func (s *productoService) Eliminar(ctx context.Context, id uint) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "producto", id)
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return traducirError(err)
	}
	if n == 0 {
		return apierror.NotFound("producto", id)
	}
	s.invalidarPrecio(ctx, p.Codigo)
	return nil
}

// ── AjustarStock ──────────────────────────────────────────────────────────────

func (s *productoService) AjustarStock(ctx context.Context, id uint, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	if req.Delta == 0 {
		return nil, apierror.Validation("delta", "delta no puede ser 0")
	}
	motivo := strings.TrimSpace(req.Motivo)
	if motivo == "" {
		return nil, apierror.Validation("motivo", "motivo es requerido")
	}

	var p *model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return notFoundOr(err, "producto", id)
		}
		antes := p.StockActual
		if antes+req.Delta < 0 {
			return apierror.InsufficientStock(id, antes, -req.Delta)
		}
		if err := s.repo.UpdateStockTx(tx, id, req.Delta); err != nil {
			return err
		}
		p.StockActual = antes + req.Delta
		ref := id
		return s.movRepo.CreateTx(tx, &model.MovimientoStock{
			ProductoID:    id,
			Tipo:          model.MovAjusteManual,
			Cantidad:      req.Delta,
			StockAnterior: antes,
			StockNuevo:    p.StockActual,
			Motivo:        motivo,
			ReferenciaID:  &ref,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidarPrecio(ctx, p.Codigo)
	emitir(s.eventos, notify.StockActualizado(p.ID, p.StockActual))
	return productoToResponse(p), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func validarProducto(p *model.Producto) error {
	if err := pricing.ValidarEscala("precio_costo", p.PrecioCosto); err != nil {
		return err
	}
	if err := pricing.ValidarEscala("precio_unitario", p.PrecioUnitario); err != nil {
		return err
	}
	switch {
	case p.Nombre == "":
		return apierror.Validation("nombre", "nombre es requerido")
	case p.Codigo == "":
		return apierror.Validation("codigo", "codigo es requerido")
	case p.PrecioCosto.IsNegative():
		return apierror.Validation("precio_costo", "El precio de costo no puede ser negativo")
	case p.StockBajo < 0:
		return apierror.Validation("stock_bajo", "El umbral de stock bajo no puede ser negativo")
	case p.StockActual < 0:
		return apierror.Validation("stock_actual", "El stock no puede ser negativo")
	case p.PrecioUnitario.LessThan(p.PrecioCosto):
		return apierror.Validationf("precio_unitario",
			"El precio de venta (%s) no puede ser menor al costo (%s)",
			p.PrecioUnitario.String(), p.PrecioCosto.String())
	}
	return nil
}

func (s *productoService) verificarCodigo(tx *gorm.DB, codigo string, excluirID uint) error {
	enUso, err := s.repo.CodigoEnUsoTx(tx, codigo, excluirID)
	if err != nil {
		return err
	}
	if enUso {
		return apierror.Validation("codigo", fmt.Sprintf("Ya existe un producto con codigo %s", codigo))
	}
	return nil
}

// verificarCategoria accepts nil (uncategorized) or an active category.
func (s *productoService) verificarCategoria(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	c, err := s.categoriaRepo.FindByIDTx(tx, *id)
	if err != nil {
		return notFoundOr(err, "categoria", *id)
	}
	if !c.Activo {
		return apierror.Validationf("categoria_id", "La categoria %s esta inactiva", c.Nombre)
	}
	return nil
}

func mismaCategoria(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *productoService) invalidarPrecio(ctx context.Context, codigos ...string) {
	if err := s.precios.Invalidate(ctx, codigos...); err != nil {
		log.Warn().Err(err).Strs("codigos", codigos).Msg("precio cache: invalidate failed")
	}
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:             p.ID,
		Nombre:         p.Nombre,
		Codigo:         p.Codigo,
		Descripcion:    p.Descripcion,
		StockActual:    p.StockActual,
		StockBajo:      p.StockBajo,
		PrecioCosto:    p.PrecioCosto,
		Margen:         p.Margen,
		PrecioUnitario: p.PrecioUnitario,
		Activo:         p.Activo,
		ImageURL:       p.ImageURL,
		CategoriaID:    p.CategoriaID,
	}
}

