// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// LedgerOperaciones counts engine operations by operation and result kind
	// ("ok" or an error kind).
	LedgerOperaciones = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operaciones_total",
			Help: "Operaciones de ventas y devoluciones por resultado",
		},
		[]string{"operacion", "resultado"},
	)

	EventosDescartados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_eventos_descartados_total",
			Help: "Eventos no entregados por motivo",
		},
		[]string{"motivo"},
	)

	EventosEntregados = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_eventos_entregados_total",
			Help: "Eventos entregados al notificador",
		},
	)

	Suscriptores = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notify_suscriptores",
			Help: "Suscriptores activos por canal",
		},
		[]string{"canal"},
	)
)

var once sync.Once

// Init registers every collector on the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			LedgerOperaciones,
			EventosDescartados,
			EventosEntregados,
			Suscriptores,
		)
	})
}

// Middleware records count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "undefined"
		}

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	}
}

// Handler serves /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}
