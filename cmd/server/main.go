package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ventaspos/internal/config"
	"ventaspos/internal/infra"
	"ventaspos/internal/notify"
	"ventaspos/internal/router"
	"ventaspos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Change notifier. Without Redis the dispatcher feeds the local hub
	// directly; with Redis every instance publishes to pub/sub and its relay
	// feeds the local hub, so subscribers on any instance see every event.
	hub := notify.NewHub(64)
	var (
		destino notify.Notifier = hub
		dlq     worker.DeadLetterStore
		redisCB *infra.CircuitBreaker
	)
	if rdb != nil {
		redisCB = infra.NewCircuitBreaker(infra.DefaultCBConfig("redis"))
		destino = notify.NewRedisPublisher(rdb, redisCB)
		dlq = worker.NewRedisDLQ(rdb, redisCB)
		go notify.NewRelay(rdb, hub).Run(ctx)
	}

	dispatcher := worker.NewDispatcher(destino, dlq, worker.DispatcherConfig{
		Workers:   cfg.WorkerPoolSize,
		QueueSize: cfg.EventQueueSize,
	})
	dispatcher.Start(ctx)

	if dlq != nil {
		if _, err := worker.StartDLQReplay(ctx, worker.DLQReplayConfig{
			DLQ:        dlq,
			Dispatcher: dispatcher,
			CB:         redisCB,
			Interval:   cfg.DLQReplayInterval,
		}); err != nil {
			log.Fatal().Err(err).Msg("failed to schedule dlq replay")
		}
	}

	r := router.New(cfg, db, rdb, hub, dispatcher)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: /v1/stream keeps responses open
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("driver", cfg.DBDriver).Bool("redis", rdb != nil).Msgf("ventaspos listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// stop workers after in-flight requests finished enqueueing
	cancel()
	dispatcher.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Int("pendientes", dispatcher.Pendientes()).Msg("server exited")
}
