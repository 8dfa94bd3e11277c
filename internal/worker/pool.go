package worker

import (
	"context"
	"sync"
	"time"

	"ventaspos/internal/metrics"
	"ventaspos/internal/notify"

	"github.com/rs/zerolog/log"
)

// DispatcherConfig tunes the async event pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxIntentos int           // delivery attempts before dead-lettering
	Backoff     time.Duration // base wait between attempts, multiplied by the attempt number
}

func (c *DispatcherConfig) normalizar() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.QueueSize < 1 {
		c.QueueSize = 1
	}
	if c.MaxIntentos < 1 {
		c.MaxIntentos = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
}

// Dispatcher delivers post-commit events to the notifier from a bounded
// queue consumed by a fixed goroutine pool. Producers never block on it.
type Dispatcher struct {
	notifier notify.Notifier
	dlq      DeadLetterStore
	cfg      DispatcherConfig
	queue    chan notify.Evento
	wg       sync.WaitGroup
}

// NewDispatcher creates the dispatcher; dlq may be nil, in which case events
// that exhaust their attempts are logged and dropped.
func NewDispatcher(n notify.Notifier, dlq DeadLetterStore, cfg DispatcherConfig) *Dispatcher {
	cfg.normalizar()
	return &Dispatcher{
		notifier: n,
		dlq:      dlq,
		cfg:      cfg,
		queue:    make(chan notify.Evento, cfg.QueueSize),
	}
}

// Enqueue schedules events for delivery. It reports false when at least one
// event was dropped because the queue was full.
func (d *Dispatcher) Enqueue(evs ...notify.Evento) bool {
	ok := true
	for _, ev := range evs {
		select {
		case d.queue <- ev:
		default:
			ok = false
			metrics.EventosDescartados.WithLabelValues("cola_llena").Inc()
			log.Warn().Str("tipo", ev.Tipo).Str("canal", ev.Canal).Msg("dispatcher: queue full, event dropped")
		}
	}
	return ok
}

// Pendientes returns the number of queued events.
func (d *Dispatcher) Pendientes() int { return len(d.queue) }

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, i)
	}
	log.Info().Msgf("dispatcher started with %d workers", d.cfg.Workers)
}

// Wait blocks until every worker returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) run(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("dispatcher worker %d shutting down", id)
			return
		case ev := <-d.queue:
			d.entregar(ctx, ev)
		}
	}
}

func (d *Dispatcher) entregar(ctx context.Context, ev notify.Evento) {
	var err error
	for intento := 1; intento <= d.cfg.MaxIntentos; intento++ {
		if err = d.notifier.Notify(ctx, ev); err == nil {
			metrics.EventosEntregados.Inc()
			return
		}
		log.Warn().Err(err).Str("tipo", ev.Tipo).Int("intento", intento).Msg("dispatcher: delivery failed")
		if intento == d.cfg.MaxIntentos {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.cfg.Backoff * time.Duration(intento)):
		}
	}

	if d.dlq == nil {
		metrics.EventosDescartados.WithLabelValues("reintentos_agotados").Inc()
		log.Error().Err(err).Str("tipo", ev.Tipo).Msg("dispatcher: retries exhausted, event dropped")
		return
	}
	SendToDLQ(ctx, d.dlq, ev, err.Error(), d.cfg.MaxIntentos)
}
