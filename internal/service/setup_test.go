package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ventaspos/internal/dto"
	"ventaspos/internal/infra"
	"ventaspos/internal/model"
	"ventaspos/internal/notify"
	"ventaspos/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Test doubles ─────────────────────────────────────────────────────────────

type eventosCapturados struct {
	mu  sync.Mutex
	evs []notify.Evento
}

func (e *eventosCapturados) Enqueue(evs ...notify.Evento) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evs = append(e.evs, evs...)
	return true
}

func (e *eventosCapturados) tipos() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.evs))
	for _, ev := range e.evs {
		out = append(out, ev.Tipo)
	}
	return out
}

func (e *eventosCapturados) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evs = nil
}

type memPrecioCache struct {
	mu    sync.Mutex
	datos map[string]*dto.ConsultaPreciosResponse
}

func newMemPrecioCache() *memPrecioCache {
	return &memPrecioCache{datos: map[string]*dto.ConsultaPreciosResponse{}}
}

func (c *memPrecioCache) Get(_ context.Context, codigo string) (*dto.ConsultaPreciosResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.datos[codigo]
	return v, ok, nil
}

func (c *memPrecioCache) Set(_ context.Context, codigo string, v *dto.ConsultaPreciosResponse, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datos[codigo] = v
	return nil
}

func (c *memPrecioCache) Invalidate(_ context.Context, codigos ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cod := range codigos {
		delete(c.datos, cod)
	}
	return nil
}

// ── Environment ──────────────────────────────────────────────────────────────

// entorno wires every service on a fresh in-memory SQLite database.
type entorno struct {
	db           *gorm.DB
	productoRepo repository.ProductoRepository
	productos    ProductoService
	ventas       VentaService
	devoluciones DevolucionService
	inventario   InventarioService
	categorias   CategoriaService
	clientes     ClienteService
	gastos       GastoService
	eventos      *eventosCapturados
	precios      *memPrecioCache
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	db, err := infra.NewDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	devolucionRepo := repository.NewDevolucionRepository(db)
	movRepo := repository.NewMovimientoStockRepository(db)
	historialRepo := repository.NewHistorialPrecioRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)

	ev := &eventosCapturados{}
	precios := newMemPrecioCache()
	return &entorno{
		db:           db,
		productoRepo: productoRepo,
		productos:    NewProductoService(productoRepo, movRepo, historialRepo, categoriaRepo, precios, time.Hour, ev),
		ventas:       NewVentaService(ventaRepo, productoRepo, movRepo, clienteRepo, ev, "Tienda Test"),
		devoluciones: NewDevolucionService(devolucionRepo, ventaRepo, productoRepo, movRepo, ev),
		inventario:   NewInventarioService(productoRepo, movRepo),
		categorias:   NewCategoriaService(categoriaRepo),
		clientes:     NewClienteService(clienteRepo),
		gastos:       NewGastoService(repository.NewGastoRepository(db)),
		eventos:      ev,
		precios:      precios,
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *entorno) crearProducto(t *testing.T, codigo string, stock int, costo, precio string) uint {
	t.Helper()
	p, err := e.productos.Crear(context.Background(), dto.CrearProductoRequest{
		Nombre:         "Producto " + codigo,
		Codigo:         codigo,
		StockActual:    stock,
		StockBajo:      2,
		PrecioCosto:    d(costo),
		PrecioUnitario: d(precio),
	})
	require.NoError(t, err)
	return p.ID
}

func (e *entorno) stock(t *testing.T, id uint) int {
	t.Helper()
	var p model.Producto
	require.NoError(t, e.db.First(&p, id).Error)
	return p.StockActual
}

func (e *entorno) contar(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

// venderA is Scenario A's sale: 3 units at 10.00 with 10% line discount.
func (e *entorno) venderA(t *testing.T, productoID uint) *dto.VentaResponse {
	t.Helper()
	v, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: productoID, Cantidad: 3, PrecioUnitario: d("10.00"), DescuentoIndividual: d("10")},
		},
	})
	require.NoError(t, err)
	return v
}
