package notify

import (
	"context"
	"encoding/json"
	"strings"

	"ventaspos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisPrefix is prepended to the channel name for pub/sub topics.
const RedisPrefix = "eventos:"

// RedisPublisher publishes events on Redis pub/sub so that every server
// instance can feed its own Hub through a Relay.
type RedisPublisher struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

func NewRedisPublisher(rdb *redis.Client, cb *infra.CircuitBreaker) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, cb: cb}
}

func (p *RedisPublisher) Notify(ctx context.Context, ev Evento) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.cb.Execute(func() error {
		return p.rdb.Publish(ctx, RedisPrefix+ev.Canal, data).Err()
	})
}

// Relay forwards Redis pub/sub messages into a local notifier.
type Relay struct {
	rdb   *redis.Client
	local Notifier
}

func NewRelay(rdb *redis.Client, local Notifier) *Relay {
	return &Relay{rdb: rdb, local: local}
}

// Run blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	sub := r.rdb.PSubscribe(ctx, RedisPrefix+"*")
	defer sub.Close()

	log.Info().Msg("notify: redis relay started")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notify: redis relay shutting down")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Evento
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Error().Err(err).Str("channel", msg.Channel).Msg("notify: invalid relay payload")
				continue
			}
			if ev.Canal == "" {
				ev.Canal = strings.TrimPrefix(msg.Channel, RedisPrefix)
			}
			_ = r.local.Notify(ctx, ev)
		}
	}
}
