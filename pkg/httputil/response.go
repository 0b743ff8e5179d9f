package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
	"github.com/congquynguyen296/hq-shop/pkg/logger"
	"github.com/congquynguyen296/hq-shop/pkg/validator"
)

// Response is the standard JSON response envelope. Success is always
// present so clients can branch on it without inspecting the status code.
type Response struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Fail builds a failed envelope carrying the given code and message.
func Fail(code, message string) Response {
	return Response{
		Success: false,
		Message: message,
		Error:   &ErrorResponse{Code: code, Message: message},
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a standardized error response based on the error type.
// Server-side failures are logged with their full cause; the body only ever
// carries the public code and message. It prefers the request-scoped logger
// from context over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	pub := apperrors.Describe(err)
	status, code, message := pub.Status, pub.Code, pub.Message

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("code", code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	resp := Fail(code, message)
	resp.Error.RequestID = requestID
	WriteJSON(w, status, resp)
}

// WriteValidationError writes a standardized validation error response.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, "")
		return
	}
	WriteJSON(w, http.StatusBadRequest, Fail("INVALID_INPUT", err.Error()))
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	resp := Fail("VALIDATION_ERROR", "request validation failed")
	resp.Error.Fields = valErr.Fields()
	resp.Error.RequestID = requestID
	WriteJSON(w, http.StatusBadRequest, resp)
}
