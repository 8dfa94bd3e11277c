package service

import (
	"context"
	"errors"

	"ventaspos/internal/apierror"
	"ventaspos/internal/metrics"
	"ventaspos/internal/notify"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EventSink receives events once their transaction committed.
// *worker.Dispatcher implements it.
type EventSink interface {
	Enqueue(evs ...notify.Evento) bool
}

// PostgreSQL SQLSTATE codes surfaced as retryable conflicts.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgCheckViolation       = "23514"
	pgUniqueViolation      = "23505"
)

// runTx executes fn inside one GORM transaction and translates whatever
// makes it fail into the engine taxonomy.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return traducirError(db.WithContext(ctx).Transaction(fn))
}

// traducirError maps storage errors to engine errors. Engine errors pass
// through untouched.
func traducirError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apierror.As(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return apierror.Conflict("La operacion entro en conflicto con otra concurrente; reintente", err)
		case pgCheckViolation:
			return apierror.Conflict("El stock cambio durante la operacion; reintente", err)
		case pgUniqueViolation:
			return apierror.Conflict("Ya existe un registro con esos datos", err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("service: operation cancelled before commit")
		return apierror.Internal(err)
	}

	log.Error().Err(err).Msg("service: storage error")
	return apierror.Internal(err)
}

// notFoundOr returns NotFound for a missing record and the translated error
// otherwise.
func notFoundOr(err error, entidad string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(entidad, id)
	}
	return traducirError(err)
}

// registrar counts one engine operation by its outcome.
func registrar(operacion string, err error) {
	resultado := "ok"
	if err != nil {
		resultado = string(apierror.KindInternal)
		if e, ok := apierror.As(err); ok {
			resultado = string(e.Kind)
		}
	}
	metrics.LedgerOperaciones.WithLabelValues(operacion, resultado).Inc()
}

func emitir(sink EventSink, evs ...notify.Evento) {
	if sink == nil || len(evs) == 0 {
		return
	}
	sink.Enqueue(evs...)
}
