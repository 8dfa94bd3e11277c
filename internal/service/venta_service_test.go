package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"
	"ventaspos/internal/notify"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrearVenta_ScenarioA(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5.00", "10.00")
	e.eventos.reset()

	v := e.venderA(t, pid)

	require.Len(t, v.Items, 1)
	assert.True(t, v.Items[0].Subtotal.Equal(d("27")), "subtotal %s", v.Items[0].Subtotal)
	assert.True(t, v.Total.Equal(d("27")), "total %s", v.Total)
	assert.True(t, v.TotalSinDescuento.Equal(d("30")))
	assert.Equal(t, "efectivo", v.FormaPago)
	assert.True(t, v.Items[0].CostoUnitario.Equal(d("5")))
	assert.Equal(t, 7, e.stock(t, pid))

	// persisted values read back identically
	got, err := e.ventas.ObtenerPorID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(d("27")))
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].DescuentoIndividual.Equal(d("10")))

	// post-commit events: new_sale first, then stock_update with the observed stock
	assert.Equal(t, []string{notify.TipoNuevaVenta, notify.TipoStock}, e.eventos.tipos())
	assert.JSONEq(t, `{"event":"stock_update","producto_id":1,"new_stock":7}`, string(e.eventos.evs[1].Data))
}

func TestCrearVenta_MovimientoDeStock(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	v := e.venderA(t, pid)

	movs, err := e.inventario.ListarMovimientos(context.Background(), dto.MovimientoFilter{ProductoID: pid, Tipo: model.MovVenta, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, movs.Data, 1)
	m := movs.Data[0]
	assert.Equal(t, -3, m.Cantidad)
	assert.Equal(t, 10, m.StockAnterior)
	assert.Equal(t, 7, m.StockNuevo)
	require.NotNil(t, m.ReferenciaID)
	assert.Equal(t, v.ID, *m.ReferenciaID)
}

func TestCrearVenta_ScenarioD_ProductoInexistente(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	e.eventos.reset()

	_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: pid, Cantidad: 2, PrecioUnitario: d("10")},
			{ProductoID: 999, Cantidad: 1, PrecioUnitario: d("10")},
		},
	})
	ae, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindNotFound, ae.Kind)
	assert.Equal(t, uint(999), ae.Fields["id"])

	// zero side effects
	assert.Equal(t, 10, e.stock(t, pid))
	assert.Zero(t, e.contar(t, &model.Venta{}))
	assert.Zero(t, e.contar(t, &model.VentaItem{}))
	var movs int64
	require.NoError(t, e.db.Model(&model.MovimientoStock{}).Where("tipo = ?", model.MovVenta).Count(&movs).Error)
	assert.Zero(t, movs)
	assert.Empty(t, e.eventos.tipos())
}

func TestCrearVenta_ScenarioE_DescuentoGlobalInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")

	_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		Items:     []dto.ItemVentaRequest{{ProductoID: pid, Cantidad: 1, PrecioUnitario: d("10")}},
		Descuento: d("150"),
	})
	ae, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindValidation, ae.Kind)
	assert.Equal(t, "descuento", ae.Fields["campo"])

	assert.Equal(t, 10, e.stock(t, pid))
	assert.Zero(t, e.contar(t, &model.Venta{}))
}

func TestCrearVenta_RechazaMasDeDosDecimales(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "1", "10")

	casos := map[string]dto.ItemVentaRequest{
		"precio_unitario":      {ProductoID: pid, Cantidad: 1, PrecioUnitario: d("3.333")},
		"descuento_individual": {ProductoID: pid, Cantidad: 1, PrecioUnitario: d("10"), DescuentoIndividual: d("12.345")},
	}
	for campo, it := range casos {
		_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{Items: []dto.ItemVentaRequest{it}})
		ae, ok := apierror.As(err)
		require.True(t, ok, campo)
		assert.Equal(t, apierror.KindValidation, ae.Kind, campo)
		assert.Equal(t, campo, ae.Fields["campo"])
	}
	assert.Equal(t, 10, e.stock(t, pid))
	assert.Zero(t, e.contar(t, &model.Venta{}))
}

func TestCrearVenta_DescuentoLineaInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")

	_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{{ProductoID: pid, Cantidad: 1, PrecioUnitario: d("10"), DescuentoIndividual: d("-5")}},
	})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
	assert.Zero(t, e.contar(t, &model.Venta{}))
}

func TestCrearVenta_StockInsuficienteNoModificaNada(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.crearProducto(t, "A", 5, "1", "2")
	b := e.crearProducto(t, "B", 1, "1", "2")

	_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: a, Cantidad: 5, PrecioUnitario: d("2")},
			{ProductoID: b, Cantidad: 2, PrecioUnitario: d("2")},
		},
	})
	ae, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindInsufficientStock, ae.Kind)
	assert.Equal(t, b, ae.Fields["producto_id"])
	assert.Equal(t, 1, ae.Fields["disponible"])
	assert.Equal(t, 2, ae.Fields["solicitado"])

	// the first line was rolled back with the rest
	assert.Equal(t, 5, e.stock(t, a))
	assert.Equal(t, 1, e.stock(t, b))
	assert.Zero(t, e.contar(t, &model.Venta{}))
}

func TestCrearVenta_LineasRepetidasDelMismoProducto(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 5, "1", "2")

	_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: pid, Cantidad: 3, PrecioUnitario: d("2")},
			{ProductoID: pid, Cantidad: 3, PrecioUnitario: d("2")},
		},
	})
	ae, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindInsufficientStock, ae.Kind)
	assert.Equal(t, 2, ae.Fields["disponible"])
	assert.Equal(t, 5, e.stock(t, pid))
}

func TestCrearVenta_ConcurrenciaSinSobreventa(t *testing.T) {
	e := nuevoEntorno(t)
	const stock, compradores = 4, 10
	pid := e.crearProducto(t, "P", stock, "1", "2")

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, sinStk int
	)
	for i := 0; i < compradores; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
				Items: []dto.ItemVentaRequest{{ProductoID: pid, Cantidad: 1, PrecioUnitario: d("2")}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apierror.IsKind(err, apierror.KindInsufficientStock):
				sinStk++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, ok)
	assert.Equal(t, compradores-stock, sinStk)
	assert.Equal(t, 0, e.stock(t, pid))
}

func TestActualizarVenta_SoloCabecera(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	v := e.venderA(t, pid)
	c, err := e.clientes.Crear(context.Background(), dto.ClienteRequest{Nombre: "Ana"})
	require.NoError(t, err)
	cliente := c.ID

	got, err := e.ventas.Actualizar(context.Background(), v.ID, 2, dto.ActualizarVentaRequest{
		ClienteID: &cliente,
		Items:     []dto.ItemSubtotalRequest{{ProductoID: pid, Subtotal: d("27")}, {ProductoID: pid, Subtotal: d("13")}},
		Descuento: d("50"),
		FormaPago: "tarjeta",
		Pagado:    true,
	})
	require.NoError(t, err)
	assert.True(t, got.TotalSinDescuento.Equal(d("40")))
	assert.True(t, got.Total.Equal(d("20")))
	assert.Equal(t, uint(2), got.UsuarioID)
	assert.Equal(t, &cliente, got.ClienteID)
	assert.Equal(t, "tarjeta", got.FormaPago)
	assert.True(t, got.Pagado)

	// lines and stock untouched
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Cantidad)
	assert.Equal(t, 7, e.stock(t, pid))
}

func TestActualizarVenta_Errores(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.ventas.Actualizar(context.Background(), 77, 1, dto.ActualizarVentaRequest{})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	_, err = e.ventas.Actualizar(context.Background(), 77, 1, dto.ActualizarVentaRequest{Descuento: d("101")})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	_, err = e.ventas.Actualizar(context.Background(), 77, 1, dto.ActualizarVentaRequest{
		Items: []dto.ItemSubtotalRequest{{ProductoID: 1, Subtotal: d("9.999")}},
	})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestMarcarPagado(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	v := e.venderA(t, pid)

	got, err := e.ventas.MarcarPagado(context.Background(), v.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Pagado)

	// same value again is not an error
	got, err = e.ventas.MarcarPagado(context.Background(), v.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Pagado)

	_, err = e.ventas.MarcarPagado(context.Background(), 999, true)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestEliminarVenta_BorraLineasYDevolucionesSinTocarStock(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	v := e.venderA(t, pid)
	_, err := e.devoluciones.Crear(context.Background(), dto.DevolucionRequest{
		VentaID: v.ID, ReponerStock: true, Items: []dto.ItemDevolucionRequest{{ProductoID: pid, Cantidad: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 8, e.stock(t, pid))

	require.NoError(t, e.ventas.Eliminar(context.Background(), v.ID))

	assert.Zero(t, e.contar(t, &model.Venta{}))
	assert.Zero(t, e.contar(t, &model.VentaItem{}))
	assert.Zero(t, e.contar(t, &model.Devolucion{}))
	assert.Zero(t, e.contar(t, &model.DevolucionItem{}))
	assert.Equal(t, 8, e.stock(t, pid))

	err = e.ventas.Eliminar(context.Background(), v.ID)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestListarVentas_OrdenDescendente(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	primera := e.venderA(t, pid)
	segunda := e.venderA(t, pid)

	list, err := e.ventas.Listar(context.Background(), dto.VentaFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Data, 2)
	assert.EqualValues(t, 2, list.Total)
	assert.Equal(t, segunda.ID, list.Data[0].ID)
	assert.Equal(t, primera.ID, list.Data[1].ID)
}

func TestTicketPDF(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")
	v := e.venderA(t, pid)

	pdf, err := e.ventas.TicketPDF(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(pdf[:5]))

	_, err = e.ventas.TicketPDF(context.Background(), 404)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestTraducirError(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "23514"} {
		err := traducirError(&pgconn.PgError{Code: code})
		ae, ok := apierror.As(err)
		require.True(t, ok, code)
		assert.Equal(t, apierror.KindConflict, ae.Kind, code)
		assert.True(t, ae.Retryable())
	}

	err := traducirError(errors.New("disk I/O error"))
	assert.True(t, apierror.IsKind(err, apierror.KindInternal))

	orig := apierror.NotFound("venta", 1)
	assert.Same(t, orig, traducirError(orig))
	assert.Nil(t, traducirError(nil))
}
