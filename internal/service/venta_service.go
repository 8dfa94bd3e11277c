package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/infra"
	"ventaspos/internal/model"
	"ventaspos/internal/notify"
	"ventaspos/internal/pricing"
	"ventaspos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const formaPagoDefault = "efectivo"

// VentaService is the sale ledger.
type VentaService interface {
	Crear(ctx context.Context, usuarioID uint, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	Actualizar(ctx context.Context, id, usuarioID uint, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error)
	Eliminar(ctx context.Context, id uint) error
	MarcarPagado(ctx context.Context, id uint, pagado bool) (*dto.VentaResponse, error)
	TicketPDF(ctx context.Context, id uint) ([]byte, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	productoRepo repository.ProductoRepository
	movRepo      repository.MovimientoStockRepository
	clienteRepo  repository.ClienteRepository
	eventos      EventSink
	tienda       string
	now          func() time.Time
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	movRepo repository.MovimientoStockRepository,
	clienteRepo repository.ClienteRepository,
	eventos EventSink,
	tienda string,
) VentaService {
	return &ventaService{
		repo:         repo,
		productoRepo: productoRepo,
		movRepo:      movRepo,
		clienteRepo:  clienteRepo,
		eventos:      eventos,
		tienda:       tienda,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// One transaction:
//   1. Validate every discount and quantity (no writes yet)
//   2. Share-lock the client, if any, and insert the header with the precomputed totals
//   3. Lock all referenced products, ascending id
//   4. Per line in request order: existence, stock, decrement, line, movement
//   5. COMMIT, then enqueue new_sale and one stock_update per product

func (s *ventaService) Crear(ctx context.Context, usuarioID uint, req dto.CrearVentaRequest) (resp *dto.VentaResponse, err error) {
	defer func() { registrar("crear_venta", err) }()

	if usuarioID == 0 {
		return nil, apierror.Validation("usuario_id", "usuario_id es requerido")
	}
	if len(req.Items) == 0 {
		return nil, apierror.Validation("detalles", "La venta debe tener al menos un producto")
	}

	lineas := make([]pricing.Linea, len(req.Items))
	subtotales := make([]decimal.Decimal, len(req.Items))
	for i, it := range req.Items {
		if it.Cantidad <= 0 {
			return nil, apierror.Validationf("cantidad", "La cantidad del producto %d debe ser mayor a 0", it.ProductoID)
		}
		if it.PrecioUnitario.IsNegative() {
			return nil, apierror.Validationf("precio_unitario", "El precio del producto %d no puede ser negativo", it.ProductoID)
		}
		if err := pricing.ValidarEscala("precio_unitario", it.PrecioUnitario); err != nil {
			return nil, err
		}
		sub, err := pricing.LineSubtotal(it.PrecioUnitario, it.Cantidad, it.DescuentoIndividual)
		if err != nil {
			return nil, err
		}
		subtotales[i] = sub
		lineas[i] = pricing.Linea{
			PrecioUnitario:      it.PrecioUnitario,
			Cantidad:            it.Cantidad,
			DescuentoIndividual: it.DescuentoIndividual,
		}
	}
	totales, err := pricing.SaleTotals(lineas, req.Descuento)
	if err != nil {
		return nil, err
	}

	formaPago := strings.TrimSpace(req.FormaPago)
	if formaPago == "" {
		formaPago = formaPagoDefault
	}

	venta := model.Venta{
		Fecha:             s.now(),
		TotalSinDescuento: totales.Bruto,
		Descuento:         req.Descuento,
		Total:             totales.Total,
		ClienteID:         req.ClienteID,
		UsuarioID:         usuarioID,
		FormaPago:         formaPago,
		Pagado:            req.Pagado,
	}
	stockFinal := newStockObservado()

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.verificarCliente(tx, venta.ClienteID); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, &venta); err != nil {
			return err
		}

		ids := make([]uint, 0, len(req.Items))
		for _, it := range req.Items {
			ids = append(ids, it.ProductoID)
		}
		productos, err := s.productoRepo.LockManyTx(tx, idsOrdenados(ids))
		if err != nil {
			return err
		}

		venta.Items = make([]model.VentaItem, 0, len(req.Items))
		for i, it := range req.Items {
			p, ok := productos[it.ProductoID]
			if !ok {
				return apierror.NotFound("producto", it.ProductoID)
			}
			if p.StockActual < it.Cantidad {
				return apierror.InsufficientStock(p.ID, p.StockActual, it.Cantidad)
			}

			antes := p.StockActual
			if err := s.productoRepo.UpdateStockTx(tx, p.ID, -it.Cantidad); err != nil {
				return err
			}
			p.StockActual -= it.Cantidad

			item := model.VentaItem{
				VentaID:             venta.ID,
				ProductoID:          p.ID,
				Cantidad:            it.Cantidad,
				PrecioUnitario:      it.PrecioUnitario,
				DescuentoIndividual: it.DescuentoIndividual,
				Subtotal:            subtotales[i],
				CostoUnitario:       p.PrecioCosto,
			}
			if err := s.repo.CreateItemTx(tx, &item); err != nil {
				return err
			}
			venta.Items = append(venta.Items, item)

			ref := venta.ID
			if err := s.movRepo.CreateTx(tx, &model.MovimientoStock{
				ProductoID:    p.ID,
				Tipo:          model.MovVenta,
				Cantidad:      -it.Cantidad,
				StockAnterior: antes,
				StockNuevo:    p.StockActual,
				Motivo:        fmt.Sprintf("Venta #%d", venta.ID),
				ReferenciaID:  &ref,
			}); err != nil {
				return err
			}
			stockFinal.set(p.ID, p.StockActual)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Uint("venta_id", venta.ID).Str("total", venta.Total.String()).Int("items", len(venta.Items)).
		Msg("venta registrada")

	emitir(s.eventos, append([]notify.Evento{notify.NuevaVenta(&venta)}, stockFinal.eventos()...)...)
	return ventaToResponse(&venta), nil
}

// ── Lecturas ──────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerPorID(ctx context.Context, id uint) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "venta", id)
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, traducirError(err)
	}
	resp := &dto.VentaListResponse{
		Data:  make([]dto.VentaResponse, 0, len(ventas)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range ventas {
		resp.Data = append(resp.Data, *ventaToResponse(&ventas[i]))
	}
	return resp, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Header only: totals are recomputed from the supplied line subtotals, while
// the stored lines and the stock stay as they are.

func (s *ventaService) Actualizar(ctx context.Context, id, usuarioID uint, req dto.ActualizarVentaRequest) (resp *dto.VentaResponse, err error) {
	defer func() { registrar("actualizar_venta", err) }()

	if usuarioID == 0 {
		return nil, apierror.Validation("usuario_id", "usuario_id es requerido")
	}
	if err := pricing.ValidarPorcentaje("descuento", req.Descuento); err != nil {
		return nil, err
	}
	bruto := decimal.Zero
	for _, it := range req.Items {
		if it.Subtotal.IsNegative() {
			return nil, apierror.Validationf("subtotal", "El subtotal del producto %d no puede ser negativo", it.ProductoID)
		}
		if err := pricing.ValidarEscala("subtotal", it.Subtotal); err != nil {
			return nil, err
		}
		if err := pricing.ValidarPorcentaje("descuento_individual", it.DescuentoIndividual); err != nil {
			return nil, err
		}
		bruto = bruto.Add(it.Subtotal)
	}

	formaPago := strings.TrimSpace(req.FormaPago)
	if formaPago == "" {
		formaPago = formaPagoDefault
	}

	var venta *model.Venta
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		v, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return notFoundOr(err, "venta", id)
		}
		if err := s.verificarCliente(tx, req.ClienteID); err != nil {
			return err
		}
		v.TotalSinDescuento = bruto
		v.Descuento = req.Descuento
		v.Total = pricing.ApplyDiscount(bruto, req.Descuento)
		v.ClienteID = req.ClienteID
		v.UsuarioID = usuarioID
		v.FormaPago = formaPago
		v.Pagado = req.Pagado
		if err := s.repo.UpdateHeaderTx(tx, v); err != nil {
			return err
		}
		venta, err = s.repo.FindWithItemsTx(tx, id)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return ventaToResponse(venta), nil
}

// verificarCliente accepts an anonymous sale (nil) or an existing client.
func (s *ventaService) verificarCliente(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := s.clienteRepo.ExistsTx(tx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.NotFound("cliente", *id)
	}
	return nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────
// Removes the sale, its lines and the returns that reference it. Stock is not
// restored for either.

func (s *ventaService) Eliminar(ctx context.Context, id uint) (err error) {
	defer func() { registrar("eliminar_venta", err) }()

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.FindForUpdateTx(tx, id); err != nil {
			return notFoundOr(err, "venta", id)
		}
		return s.repo.DeleteTx(tx, id)
	})
}

// ── MarcarPagado ──────────────────────────────────────────────────────────────

func (s *ventaService) MarcarPagado(ctx context.Context, id uint, pagado bool) (*dto.VentaResponse, error) {
	n, err := s.repo.UpdatePagado(ctx, id, pagado)
	if err != nil {
		return nil, traducirError(err)
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and, on some drivers, for
		// an unchanged value; the read below tells them apart.
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return nil, notFoundOr(err, "venta", id)
		}
	}
	return s.ObtenerPorID(ctx, id)
}

// ── TicketPDF ─────────────────────────────────────────────────────────────────

func (s *ventaService) TicketPDF(ctx context.Context, id uint) ([]byte, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "venta", id)
	}

	nombres := make(map[uint]string, len(v.Items))
	for _, it := range v.Items {
		if _, ok := nombres[it.ProductoID]; ok {
			continue
		}
		// deleted products print with their id only
		if p, err := s.productoRepo.FindByID(ctx, it.ProductoID); err == nil {
			nombres[it.ProductoID] = p.Nombre
		}
	}

	pdf, err := infra.GenerateTicketPDF(infra.TicketData{Tienda: s.tienda, Venta: v, Nombres: nombres})
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return pdf, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// stockObservado keeps the last stock value seen per product inside a
// transaction, in first-touch order.
type stockObservado struct {
	orden []uint
	valor map[uint]int
}

func newStockObservado() *stockObservado {
	return &stockObservado{valor: map[uint]int{}}
}

func (o *stockObservado) set(id uint, stock int) {
	if _, ok := o.valor[id]; !ok {
		o.orden = append(o.orden, id)
	}
	o.valor[id] = stock
}

func (o *stockObservado) eventos() []notify.Evento {
	out := make([]notify.Evento, 0, len(o.orden))
	for _, id := range o.orden {
		out = append(out, notify.StockActualizado(id, o.valor[id]))
	}
	return out
}

// idsOrdenados returns the distinct ids in ascending order, the lock order
// shared by every ledger transaction.
func idsOrdenados(ids []uint) []uint {
	vistos := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := vistos[id]; ok {
			continue
		}
		vistos[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:                v.ID,
		Fecha:             v.Fecha.Format(time.RFC3339),
		TotalSinDescuento: v.TotalSinDescuento,
		Descuento:         v.Descuento,
		Total:             v.Total,
		ClienteID:         v.ClienteID,
		UsuarioID:         v.UsuarioID,
		FormaPago:         v.FormaPago,
		Pagado:            v.Pagado,
		Items:             make([]dto.ItemVentaResponse, 0, len(v.Items)),
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			ID:                  it.ID,
			ProductoID:          it.ProductoID,
			Cantidad:            it.Cantidad,
			PrecioUnitario:      it.PrecioUnitario,
			DescuentoIndividual: it.DescuentoIndividual,
			Subtotal:            it.Subtotal,
			CostoUnitario:       it.CostoUnitario,
		})
	}
	return resp
}
