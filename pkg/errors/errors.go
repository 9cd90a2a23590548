package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Storefront core errors.
var (
	// ErrInvalidTarget is returned when a checkout is started for an empty
	// cart or for a product without an identifier.
	ErrInvalidTarget = errors.New("invalid checkout target")

	// ErrInvalidStateTransition is returned when confirm or cancel is
	// applied to a session that is no longer active.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUnknownLanguage is returned when a language outside the supported
	// set is supplied for price projection.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrPaymentsDisabled is returned when checkout is switched off by an
	// administrator.
	ErrPaymentsDisabled = errors.New("payments disabled")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Unavailable creates a 503 error for a dependency that cannot be reached.
func Unavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrUnavailable,
	}
}

// InvalidTarget creates a 422 error for a checkout with nothing to pay for.
func InvalidTarget(message string) *AppError {
	return &AppError{
		Code:    "INVALID_TARGET",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrInvalidTarget,
	}
}

// InvalidStateTransition creates a 409 error for a session that has already
// left the active state.
func InvalidStateTransition(from, action string) *AppError {
	return &AppError{
		Code:    "INVALID_STATE_TRANSITION",
		Message: fmt.Sprintf("cannot %s a session in state %s", action, from),
		Status:  http.StatusConflict,
		Err:     ErrInvalidStateTransition,
	}
}

// UnknownLanguage creates a 400 error for an unsupported language code.
func UnknownLanguage(code string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_LANGUAGE",
		Message: fmt.Sprintf("language %q is not supported", code),
		Status:  http.StatusBadRequest,
		Err:     ErrUnknownLanguage,
	}
}

// PaymentsDisabled creates a 503 error shown while checkout is under maintenance.
func PaymentsDisabled() *AppError {
	return &AppError{
		Code:    "PAYMENTS_DISABLED",
		Message: "payments are temporarily disabled for maintenance",
		Status:  http.StatusServiceUnavailable,
		Err:     ErrPaymentsDisabled,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTarget):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrPaymentsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
