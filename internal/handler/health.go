package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// salud is the state of one dependency as reported by /health.
type salud struct {
	Estado    string `json:"estado"` // connected | error | disabled
	Driver    string `json:"driver,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Health pings the ledger database and, when configured, the Redis price
// cache. Redis being down degrades price lookups only, so it is reported
// but does not turn the check into a 503.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		base := salud{Estado: "connected", Driver: db.Dialector.Name()}
		inicio := time.Now()
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			base.Estado = "error"
		}
		base.LatencyMS = time.Since(inicio).Milliseconds()

		cache := salud{Estado: "disabled"}
		if rdb != nil {
			inicio = time.Now()
			cache.Estado = "connected"
			if rdb.Ping(ctx).Err() != nil {
				cache.Estado = "error"
			}
			cache.LatencyMS = time.Since(inicio).Milliseconds()
		}

		status := http.StatusOK
		if base.Estado != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":    status == http.StatusOK,
			"db":    base,
			"redis": cache,
		})
	}
}
