// Package apierror provides the error taxonomy of the ledger engine and the
// standardized error envelope returned to clients.
// Every error that reaches a handler goes through this package so that the
// response carries a stable kind plus the numeric detail needed to build a
// message, without leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine error. Callers decide retry behaviour from it.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindReturnLimitExceeded Kind = "return_limit_exceeded"
	KindConflict            Kind = "conflict"
	KindInternal            Kind = "internal"
)

// Error is the structured engine error. Fields holds the offending ids and
// numeric bounds (producto_id, disponible, solicitado, ...).
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether repeating the whole operation may succeed.
func (e *Error) Retryable() bool { return e.Kind == KindConflict || e.Kind == KindInternal }

func Validation(campo, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: msg,
		Fields:  map[string]any{"campo": campo},
	}
}

// Validationf is Validation with a formatted message.
func Validationf(campo, format string, args ...any) *Error {
	return Validation(campo, fmt.Sprintf(format, args...))
}

func NotFound(entidad string, id uint) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %d no encontrado", entidad, id),
		Fields:  map[string]any{"entidad": entidad, "id": id},
	}
}

// NotFoundBy is NotFound for lookups by a field other than the id.
func NotFoundBy(entidad, campo string, valor any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s con %s %v no encontrado", entidad, campo, valor),
		Fields:  map[string]any{"entidad": entidad, campo: valor},
	}
}

func InsufficientStock(productoID uint, disponible, solicitado int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("Stock insuficiente para producto %d; disponible %d, solicitado %d", productoID, disponible, solicitado),
		Fields: map[string]any{
			"producto_id": productoID,
			"disponible":  disponible,
			"solicitado":  solicitado,
		},
	}
}

func ReturnLimitExceeded(productoID uint, solicitado, disponible int) *Error {
	return &Error{
		Kind:    KindReturnLimitExceeded,
		Message: fmt.Sprintf("No puedes devolver %d unidades del producto %d; solo quedan %d disponibles", solicitado, productoID, disponible),
		Fields: map[string]any{
			"producto_id": productoID,
			"solicitado":  solicitado,
			"disponible":  disponible,
		},
	}
}

func Conflict(msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: msg, cause: cause}
}

// Internal wraps a storage or transaction failure. The cause is kept for
// logging but never rendered to clients.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Error interno del servidor", cause: cause}
}

// As extracts the engine error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindReturnLimitExceeded, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ── Response envelopes ────────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string         `json:"detail"`
	Kind   Kind           `json:"kind,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FromError renders an engine error. Internal errors only expose the
// generic message.
func FromError(e *Error) *APIError {
	if e.Kind == KindInternal {
		return &APIError{Detail: e.Message, Kind: e.Kind}
	}
	return &APIError{Detail: e.Message, Kind: e.Kind, Fields: e.Fields}
}

// ValidationError wraps multiple field errors coming from struct tags.
type ValidationError struct {
	Detail string            `json:"detail"`
	Kind   Kind              `json:"kind"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Kind: KindValidation, Fields: fields}
}
