// Package domainerr concentra la taxonomía de errores que comparten los módulos del core.
// Los servicios envuelven estos sentinels con fmt.Errorf("%w: ...") y el borde HTTP
// los mapea con errors.Is.
package domainerr

import (
	"errors"
	"fmt"
	"net/http"

	"pet-adoption/internal/platform/fsm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrInternal          = errors.New("internal error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = fsm.ErrInvalidTransition
)

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func InvalidInput(format string, args ...any) error {
	return wrap(ErrInvalidInput, format, args...)
}

// Internal envuelve una falla downstream (event log, proveedor de fondos) conservando
// la causa original en la cadena.
func Internal(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, fmt.Sprintf(format, args...), cause)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// HTTPStatus traduce un error del core a un status HTTP.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
