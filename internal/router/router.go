package router

import (
	"time"

	"ventaspos/internal/cache"
	"ventaspos/internal/config"
	"ventaspos/internal/handler"
	"ventaspos/internal/metrics"
	"ventaspos/internal/middleware"
	"ventaspos/internal/notify"
	"ventaspos/internal/repository"
	"ventaspos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil; eventos receives post-commit events (usually the
// worker dispatcher).
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *notify.Hub, eventos service.EventSink) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Init()

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(metrics.Middleware())
	r.Use(middleware.NewRateLimiter(cfg.RateLimit, time.Minute).Middleware())

	// ── Infrastructure ───────────────────────────────────────────────────────
	var precios cache.PrecioCache = cache.NoopPrecioCache{}
	if rdb != nil {
		precios = cache.NewRedisPrecioCache(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	devolucionRepo := repository.NewDevolucionRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	historialPrecioRepo := repository.NewHistorialPrecioRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	gastoRepo := repository.NewGastoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	productoSvc := service.NewProductoService(productoRepo, movimientoStockRepo, historialPrecioRepo, categoriaRepo, precios, cfg.PrecioCacheTTL, eventos)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, movimientoStockRepo, clienteRepo, eventos, cfg.TiendaNombre)
	devolucionSvc := service.NewDevolucionService(devolucionRepo, ventaRepo, productoRepo, movimientoStockRepo, eventos)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	clienteSvc := service.NewClienteService(clienteRepo)
	gastoSvc := service.NewGastoService(gastoRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productosH := handler.NewProductosHandler(productoSvc)
	historialPreciosH := handler.NewHistorialPreciosHandler(productoSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	devolucionesH := handler.NewDevolucionesHandler(devolucionSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	gastosH := handler.NewGastosHandler(gastoSvc)
	streamH := handler.NewStreamHandler(hub, 0)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", metrics.Handler())
	r.GET("/v1/precio/:codigo", consultaH.GetPrecioPorCodigo)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		prods := v1.Group("/productos")
		{
			prods.POST("", productosH.Crear)
			prods.GET("", productosH.Listar)
			prods.GET("/:id", productosH.ObtenerPorID)
			prods.PATCH("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.PATCH("/:id/stock", productosH.AjustarStock)
			prods.GET("/:id/historial-precios", historialPreciosH.ListarPorProducto)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", ventasH.RegistrarVenta)
			ventas.GET("", ventasH.ListarVentas)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.PUT("/:id", ventasH.ActualizarVenta)
			ventas.DELETE("/:id", ventasH.EliminarVenta)
			ventas.PATCH("/:id/pagado", ventasH.MarcarPagado)
			ventas.GET("/:id/ticket", ventasH.Ticket)
		}

		devs := v1.Group("/devoluciones")
		{
			devs.POST("", devolucionesH.Crear)
			devs.GET("", devolucionesH.Listar)
			devs.GET("/:id", devolucionesH.ObtenerPorID)
			devs.PUT("/:id", devolucionesH.Actualizar)
			devs.DELETE("/:id", devolucionesH.Eliminar)
		}

		cats := v1.Group("/categorias")
		{
			cats.POST("", categoriasH.Crear)
			cats.GET("", categoriasH.Listar)
			cats.GET("/:id", categoriasH.ObtenerPorID)
			cats.PUT("/:id", categoriasH.Actualizar)
			cats.DELETE("/:id", categoriasH.Desactivar)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", clientesH.Eliminar)
		}

		gastos := v1.Group("/gastos")
		{
			gastos.POST("", gastosH.Crear)
			gastos.GET("", gastosH.Listar)
			gastos.GET("/:id", gastosH.ObtenerPorID)
			gastos.PUT("/:id", gastosH.Actualizar)
			gastos.DELETE("/:id", gastosH.Eliminar)
		}

		inv := v1.Group("/inventario")
		{
			inv.GET("/alertas", inventarioH.ObtenerAlertas)
			inv.GET("/movimientos", inventarioH.ListarMovimientos)
		}

		v1.GET("/stream/:canal", streamH.Stream)
	}

	return r
}
