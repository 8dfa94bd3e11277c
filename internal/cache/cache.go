// Package cache holds the read-through cache of the public price check.
package cache

import (
	"context"
	"time"

	"ventaspos/internal/dto"
)

// PrecioCache stores price-check responses keyed by product code.
type PrecioCache interface {
	Get(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, bool, error)
	Set(ctx context.Context, codigo string, value *dto.ConsultaPreciosResponse, ttl time.Duration) error
	Invalidate(ctx context.Context, codigos ...string) error
}

// NoopPrecioCache is used when Redis is not configured.
type NoopPrecioCache struct{}

func (NoopPrecioCache) Get(_ context.Context, _ string) (*dto.ConsultaPreciosResponse, bool, error) {
	return nil, false, nil
}

func (NoopPrecioCache) Set(_ context.Context, _ string, _ *dto.ConsultaPreciosResponse, _ time.Duration) error {
	return nil
}

func (NoopPrecioCache) Invalidate(_ context.Context, _ ...string) error { return nil }
