package worker

// dlq.go: Dead Letter Queue
// Events that exhaust their delivery attempts are parked here and replayed
// later by the DLQ replay job. The Redis list is dlq:eventos.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ventaspos/internal/infra"
	"ventaspos/internal/metrics"
	"ventaspos/internal/notify"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix   = "dlq:"
	ColaEventos = "eventos"
)

// DLQEntry wraps a failed event with metadata for debugging.
type DLQEntry struct {
	Evento   notify.Evento `json:"evento"`
	Reason   string        `json:"reason"`
	FailedAt string        `json:"failed_at"` // ISO 8601
	Attempts int           `json:"attempts"`
}

// DeadLetterStore is the parking area for undeliverable events.
type DeadLetterStore interface {
	Push(ctx context.Context, e DLQEntry) error
	// PopBatch removes and returns up to n entries, oldest first.
	PopBatch(ctx context.Context, n int) ([]DLQEntry, error)
	Len(ctx context.Context) (int64, error)
}

// SendToDLQ parks a failed event; failures to do so are only logged.
func SendToDLQ(ctx context.Context, store DeadLetterStore, ev notify.Evento, reason string, attempts int) {
	entry := DLQEntry{
		Evento:   ev,
		Reason:   reason,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
		Attempts: attempts,
	}
	if err := store.Push(ctx, entry); err != nil {
		metrics.EventosDescartados.WithLabelValues("dlq_error").Inc()
		log.Error().Err(err).Str("tipo", ev.Tipo).Msg("dlq: failed to push entry")
		return
	}
	metrics.EventosDescartados.WithLabelValues("dlq").Inc()
	log.Warn().
		Str("tipo", ev.Tipo).
		Str("canal", ev.Canal).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: event moved to dead letter queue")
}

// RedisDLQ keeps entries in a Redis list: LPUSH on write, RPOP on replay.
type RedisDLQ struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
	key string
}

func NewRedisDLQ(rdb *redis.Client, cb *infra.CircuitBreaker) *RedisDLQ {
	return &RedisDLQ{rdb: rdb, cb: cb, key: DLQPrefix + ColaEventos}
}

func (q *RedisDLQ) Push(ctx context.Context, e DLQEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.cb.Execute(func() error {
		return q.rdb.LPush(ctx, q.key, data).Err()
	})
}

func (q *RedisDLQ) PopBatch(ctx context.Context, n int) ([]DLQEntry, error) {
	var out []DLQEntry
	for i := 0; i < n; i++ {
		raw, err := q.rdb.RPop(ctx, q.key).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return out, err
		}
		var e DLQEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			log.Error().Err(err).Msg("dlq: discarding malformed entry")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Len returns the number of parked entries for monitoring.
func (q *RedisDLQ) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
