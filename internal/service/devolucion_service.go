package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"
	"ventaspos/internal/pricing"
	"ventaspos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DevolucionService is the return ledger. Every write locks the sale row
// first, so all return operations on one sale are serialized and the
// conservation check is atomic with the insert.
type DevolucionService interface {
	Crear(ctx context.Context, req dto.DevolucionRequest) (*dto.DevolucionResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.DevolucionResponse, error)
	Listar(ctx context.Context, filter dto.DevolucionFilter) (*dto.DevolucionListResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.DevolucionRequest) (*dto.DevolucionResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type devolucionService struct {
	repo         repository.DevolucionRepository
	ventaRepo    repository.VentaRepository
	productoRepo repository.ProductoRepository
	movRepo      repository.MovimientoStockRepository
	eventos      EventSink
	now          func() time.Time
}

func NewDevolucionService(
	repo repository.DevolucionRepository,
	ventaRepo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	movRepo repository.MovimientoStockRepository,
	eventos EventSink,
) DevolucionService {
	return &devolucionService{
		repo:         repo,
		ventaRepo:    ventaRepo,
		productoRepo: productoRepo,
		movRepo:      movRepo,
		eventos:      eventos,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *devolucionService) Crear(ctx context.Context, req dto.DevolucionRequest) (resp *dto.DevolucionResponse, err error) {
	defer func() { registrar("crear_devolucion", err) }()

	if req.VentaID == 0 {
		return nil, apierror.Validation("venta_id", "venta_id es requerido")
	}
	if err := validarItemsDevolucion(req.Items); err != nil {
		return nil, err
	}

	dev := &model.Devolucion{
		VentaID:      req.VentaID,
		Fecha:        s.now(),
		ReponerStock: req.ReponerStock,
		Detalle:      strings.TrimSpace(req.Detalle),
	}
	stock := newStockObservado()

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.ventaRepo.FindForUpdateTx(tx, req.VentaID); err != nil {
			return notFoundOr(err, "venta", req.VentaID)
		}
		if err := s.verificarLimites(tx, req.VentaID, req.Items); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, dev); err != nil {
			return err
		}
		var productos map[uint]*model.Producto
		if dev.ReponerStock {
			var err error
			if productos, err = s.productoRepo.LockManyTx(tx, idsDevolucion(req.Items)); err != nil {
				return err
			}
		}
		return s.insertarItems(tx, dev, req.Items, productos, stock)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Uint("devolucion_id", dev.ID).Uint("venta_id", dev.VentaID).Bool("reponer_stock", dev.ReponerStock).
		Msg("devolucion registrada")
	emitir(s.eventos, stock.eventos()...)
	return devolucionToResponse(dev), nil
}

// ── Lecturas ──────────────────────────────────────────────────────────────────

func (s *devolucionService) ObtenerPorID(ctx context.Context, id uint) (*dto.DevolucionResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "devolucion", id)
	}
	return devolucionToResponse(d), nil
}

func (s *devolucionService) Listar(ctx context.Context, filter dto.DevolucionFilter) (*dto.DevolucionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, traducirError(err)
	}
	resp := &dto.DevolucionListResponse{
		Data:  make([]dto.DevolucionResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, *devolucionToResponse(&rows[i]))
	}
	return resp, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
//   1. Lock the sale, reload the return under that lock
//   2. Drop the old lines, then validate and insert the new ones as on create
//   3. If the old return restored stock, take it back out
// The new lines are applied before the old ones are taken back, so stock
// never dips below its final value and only the net result must be >= 0.

func (s *devolucionService) Actualizar(ctx context.Context, id uint, req dto.DevolucionRequest) (resp *dto.DevolucionResponse, err error) {
	defer func() { registrar("actualizar_devolucion", err) }()

	if err := validarItemsDevolucion(req.Items); err != nil {
		return nil, err
	}

	var dev *model.Devolucion
	stock := newStockObservado()

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		dev, err = s.bloquear(tx, id)
		if err != nil {
			return err
		}
		if req.VentaID != 0 && req.VentaID != dev.VentaID {
			return apierror.Validationf("venta_id", "La devolucion %d pertenece a la venta %d", dev.ID, dev.VentaID)
		}

		ids := idsItems(dev.Items)
		if req.ReponerStock {
			ids = append(ids, idsDevolucion(req.Items)...)
		}
		var productos map[uint]*model.Producto
		if dev.ReponerStock || req.ReponerStock {
			if productos, err = s.productoRepo.LockManyTx(tx, idsOrdenados(ids)); err != nil {
				return err
			}
		}

		viejos, reponia := dev.Items, dev.ReponerStock
		if err := s.repo.DeleteItemsTx(tx, dev.ID); err != nil {
			return err
		}
		if err := s.verificarLimites(tx, dev.VentaID, req.Items); err != nil {
			return err
		}

		dev.ReponerStock = req.ReponerStock
		dev.Detalle = strings.TrimSpace(req.Detalle)
		if err := s.repo.UpdateHeaderTx(tx, dev); err != nil {
			return err
		}
		dev.Items = nil
		if err := s.insertarItems(tx, dev, req.Items, productos, stock); err != nil {
			return err
		}
		return s.revertir(tx, dev.ID, reponia, viejos, productos, stock)
	})
	if txErr != nil {
		return nil, txErr
	}

	emitir(s.eventos, stock.eventos()...)
	return devolucionToResponse(dev), nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

func (s *devolucionService) Eliminar(ctx context.Context, id uint) (err error) {
	defer func() { registrar("eliminar_devolucion", err) }()

	stock := newStockObservado()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		dev, err := s.bloquear(tx, id)
		if err != nil {
			return err
		}
		if dev.ReponerStock {
			productos, err := s.productoRepo.LockManyTx(tx, idsOrdenados(idsItems(dev.Items)))
			if err != nil {
				return err
			}
			if err := s.revertir(tx, dev.ID, true, dev.Items, productos, stock); err != nil {
				return err
			}
		}
		return s.repo.DeleteTx(tx, dev.ID)
	})
	if txErr != nil {
		return txErr
	}

	emitir(s.eventos, stock.eventos()...)
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// bloquear locks the owning sale and reloads the return under that lock.
func (s *devolucionService) bloquear(tx *gorm.DB, id uint) (*model.Devolucion, error) {
	d, err := s.repo.FindByIDTx(tx, id)
	if err != nil {
		return nil, notFoundOr(err, "devolucion", id)
	}
	if _, err := s.ventaRepo.FindForUpdateTx(tx, d.VentaID); err != nil {
		return nil, notFoundOr(err, "venta", d.VentaID)
	}
	d, err = s.repo.FindByIDTx(tx, id)
	if err != nil {
		return nil, notFoundOr(err, "devolucion", id)
	}
	return d, nil
}

// verificarLimites checks Σ returned ≤ Σ sold per product, counting earlier
// items of the same request as already returned.
func (s *devolucionService) verificarLimites(tx *gorm.DB, ventaID uint, items []dto.ItemDevolucionRequest) error {
	pendiente := make(map[uint]int, len(items))
	for _, it := range items {
		vendido, err := s.ventaRepo.SoldQtyTx(tx, ventaID, it.ProductoID)
		if err != nil {
			return err
		}
		devuelto, err := s.repo.ReturnedQtyTx(tx, ventaID, it.ProductoID)
		if err != nil {
			return err
		}
		disponible := vendido - devuelto - pendiente[it.ProductoID]
		if it.Cantidad > disponible {
			return apierror.ReturnLimitExceeded(it.ProductoID, it.Cantidad, disponible)
		}
		pendiente[it.ProductoID] += it.Cantidad
	}
	return nil
}

// insertarItems writes the lines with price and discount copied from the first
// matching sale line, restoring stock when the return asks for it.
func (s *devolucionService) insertarItems(
	tx *gorm.DB,
	dev *model.Devolucion,
	items []dto.ItemDevolucionRequest,
	productos map[uint]*model.Producto,
	stock *stockObservado,
) error {
	for _, it := range items {
		vi, err := s.ventaRepo.FirstItemTx(tx, dev.VentaID, it.ProductoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFoundBy("venta_item", "producto_id", it.ProductoID)
			}
			return err
		}
		sub, err := pricing.LineSubtotal(vi.PrecioUnitario, it.Cantidad, vi.DescuentoIndividual)
		if err != nil {
			return err
		}
		item := model.DevolucionItem{
			DevolucionID:        dev.ID,
			ProductoID:          it.ProductoID,
			Cantidad:            it.Cantidad,
			PrecioUnitario:      vi.PrecioUnitario,
			DescuentoIndividual: vi.DescuentoIndividual,
			Subtotal:            sub,
		}
		if err := s.repo.CreateItemTx(tx, &item); err != nil {
			return err
		}
		dev.Items = append(dev.Items, item)

		if !dev.ReponerStock {
			continue
		}
		p, ok := productos[it.ProductoID]
		if !ok {
			// product deleted since the sale: the line stays, stock has nowhere to go
			log.Warn().Uint("producto_id", it.ProductoID).Uint("devolucion_id", dev.ID).
				Msg("devolucion: producto inexistente, stock no repuesto")
			continue
		}
		if err := s.moverStock(tx, p, it.Cantidad, model.MovDevolucion,
			fmt.Sprintf("Devolucion #%d de venta #%d", dev.ID, dev.VentaID), dev.ID); err != nil {
			return err
		}
		stock.set(p.ID, p.StockActual)
	}
	return nil
}

// revertir takes back the stock a restoring return added with items. Each
// product must still hold at least the returned quantity.
func (s *devolucionService) revertir(
	tx *gorm.DB,
	devID uint,
	reponia bool,
	items []model.DevolucionItem,
	productos map[uint]*model.Producto,
	stock *stockObservado,
) error {
	if !reponia {
		return nil
	}
	for _, it := range items {
		p, ok := productos[it.ProductoID]
		if !ok {
			continue
		}
		if p.StockActual < it.Cantidad {
			return apierror.InsufficientStock(p.ID, p.StockActual, it.Cantidad)
		}
		if err := s.moverStock(tx, p, -it.Cantidad, model.MovReversionDevolucion,
			fmt.Sprintf("Reversion de devolucion #%d", devID), devID); err != nil {
			return err
		}
		stock.set(p.ID, p.StockActual)
	}
	return nil
}

func (s *devolucionService) moverStock(tx *gorm.DB, p *model.Producto, delta int, tipo, motivo string, ref uint) error {
	antes := p.StockActual
	if err := s.productoRepo.UpdateStockTx(tx, p.ID, delta); err != nil {
		return err
	}
	p.StockActual += delta
	return s.movRepo.CreateTx(tx, &model.MovimientoStock{
		ProductoID:    p.ID,
		Tipo:          tipo,
		Cantidad:      delta,
		StockAnterior: antes,
		StockNuevo:    p.StockActual,
		Motivo:        motivo,
		ReferenciaID:  &ref,
	})
}

func validarItemsDevolucion(items []dto.ItemDevolucionRequest) error {
	if len(items) == 0 {
		return apierror.Validation("items", "La devolucion debe tener al menos un producto")
	}
	for _, it := range items {
		if it.ProductoID == 0 {
			return apierror.Validation("producto_id", "producto_id es requerido")
		}
		if it.Cantidad <= 0 {
			return apierror.Validationf("cantidad", "La cantidad del producto %d debe ser mayor a 0", it.ProductoID)
		}
	}
	return nil
}

func idsDevolucion(items []dto.ItemDevolucionRequest) []uint {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductoID)
	}
	return idsOrdenados(ids)
}

func idsItems(items []model.DevolucionItem) []uint {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductoID)
	}
	return ids
}

func devolucionToResponse(d *model.Devolucion) *dto.DevolucionResponse {
	resp := &dto.DevolucionResponse{
		ID:           d.ID,
		VentaID:      d.VentaID,
		Fecha:        d.Fecha.Format(time.RFC3339),
		ReponerStock: d.ReponerStock,
		Detalle:      d.Detalle,
		Total:        decimal.Zero,
		Items:        make([]dto.ItemDevolucionResponse, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		resp.Total = resp.Total.Add(it.Subtotal)
		resp.Items = append(resp.Items, dto.ItemDevolucionResponse{
			ID:                  it.ID,
			ProductoID:          it.ProductoID,
			Cantidad:            it.Cantidad,
			PrecioUnitario:      it.PrecioUnitario,
			DescuentoIndividual: it.DescuentoIndividual,
			Subtotal:            it.Subtotal,
		})
	}
	return resp
}
