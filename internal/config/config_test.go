package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.DLQReplayInterval)
	assert.Equal(t, 4*time.Hour, cfg.PrecioCacheTTL)
	assert.Equal(t, 256, cfg.EventQueueSize)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DLQ_REPLAY_INTERVAL", "15s")
	t.Setenv("WORKER_POOL_SIZE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.DLQReplayInterval)
	assert.Equal(t, 1, cfg.WorkerPoolSize)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecretoCortoEnProduccion(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "corto")
	_, err := Load()
	assert.Error(t, err)
}

func TestOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.Empty(t, (&Config{}).Origins())
}
