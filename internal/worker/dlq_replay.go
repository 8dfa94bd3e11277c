package worker

// dlq_replay.go
// Scheduled job that moves parked events back into the dispatcher queue.
// Skips a tick entirely while the Redis breaker is open.

import (
	"context"
	"time"

	"ventaspos/internal/infra"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const replayBatchSize = 50

// DLQReplayConfig holds all dependencies of the replay job.
type DLQReplayConfig struct {
	DLQ        DeadLetterStore
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker // optional
	Interval   time.Duration
}

// StartDLQReplay schedules the replay job with gocron and stops the scheduler
// when ctx is cancelled.
func StartDLQReplay(ctx context.Context, cfg DLQReplayConfig) (*gocron.Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(cfg.Interval).WaitForSchedule().SingletonMode().Do(func() {
		if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("dlq_replay: circuit breaker is open, skipping tick")
			return
		}
		ReplayDLQ(ctx, cfg.DLQ, cfg.Dispatcher, replayBatchSize)
	})
	if err != nil {
		return nil, err
	}
	s.StartAsync()
	log.Info().Dur("interval", cfg.Interval).Msg("dlq_replay: started")

	go func() {
		<-ctx.Done()
		s.Stop()
		log.Info().Msg("dlq_replay: shutting down")
	}()
	return s, nil
}

// ReplayDLQ re-enqueues up to n parked events and returns how many went
// back to the queue. Entries that do not fit are parked again.
func ReplayDLQ(ctx context.Context, dlq DeadLetterStore, d *Dispatcher, n int) int {
	entries, err := dlq.PopBatch(ctx, n)
	if err != nil {
		log.Error().Err(err).Msg("dlq_replay: failed to read entries")
	}
	if len(entries) == 0 {
		return 0
	}

	reencolados := 0
	for i, e := range entries {
		if !d.Enqueue(e.Evento) {
			for _, resto := range entries[i:] {
				if err := dlq.Push(ctx, resto); err != nil {
					log.Error().Err(err).Str("tipo", resto.Evento.Tipo).Msg("dlq_replay: entry lost")
				}
			}
			break
		}
		reencolados++
	}
	log.Info().Int("count", reencolados).Msg("dlq_replay: events re-enqueued")
	return reencolados
}
