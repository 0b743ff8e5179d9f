// Package errors defines the error values the service reports to API
// clients and how each one maps onto an HTTP status and public code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors raised without an AppError wrapper.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is an error with a public code and message. Err holds the cause
// and is never shown to clients.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(status int, code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: cause}
}

// InvalidQuery reports a search or suggestion request that cannot run as
// given.
func InvalidQuery(message string) *AppError {
	return newAppError(http.StatusBadRequest, "INVALID_QUERY", message, ErrInvalidQuery)
}

// Conflict reports a request clashing with work already in progress.
func Conflict(message string) *AppError {
	return newAppError(http.StatusConflict, "CONFLICT", message, ErrConflict)
}

// ServiceUnavailable reports a backend that could not serve the request.
// A nil cause defaults to ErrServiceUnavail.
func ServiceUnavailable(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrServiceUnavail
	}
	return newAppError(http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", message, cause)
}

// Internal hides err behind a generic 500.
func Internal(err error) *AppError {
	return newAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", err)
}

// Public is the client-facing view of an error.
type Public struct {
	Status  int
	Code    string
	Message string
}

// Describe maps err to what a client may see. AppErrors carry their own
// view; bare sentinels get a fixed one; anything else is an internal error.
func Describe(err error) Public {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Public{Status: appErr.Status, Code: appErr.Code, Message: appErr.Message}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return Public{http.StatusNotFound, "NOT_FOUND", "resource not found"}
	case errors.Is(err, ErrInvalidQuery):
		return Public{http.StatusBadRequest, "INVALID_QUERY", err.Error()}
	case errors.Is(err, ErrInvalidInput):
		return Public{http.StatusBadRequest, "INVALID_INPUT", err.Error()}
	case errors.Is(err, ErrConflict):
		return Public{http.StatusConflict, "CONFLICT", "request conflicts with work in progress"}
	case errors.Is(err, ErrServiceUnavail):
		return Public{http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "service temporarily unavailable"}
	default:
		return Public{http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"}
	}
}
