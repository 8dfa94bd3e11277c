package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ventaspos/internal/dto"

	"github.com/redis/go-redis/v9"
)

const precioKeyPrefix = "precio:"

type RedisPrecioCache struct {
	client *redis.Client
}

func NewRedisPrecioCache(client *redis.Client) *RedisPrecioCache {
	return &RedisPrecioCache{client: client}
}

func (c *RedisPrecioCache) Get(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, bool, error) {
	val, err := c.client.Get(ctx, precioKeyPrefix+codigo).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp dto.ConsultaPreciosResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisPrecioCache) Set(ctx context.Context, codigo string, value *dto.ConsultaPreciosResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, precioKeyPrefix+codigo, payload, ttl).Err()
}

func (c *RedisPrecioCache) Invalidate(ctx context.Context, codigos ...string) error {
	if len(codigos) == 0 {
		return nil
	}
	keys := make([]string, len(codigos))
	for i, cod := range codigos {
		keys[i] = precioKeyPrefix + cod
	}
	return c.client.Del(ctx, keys...).Err()
}
