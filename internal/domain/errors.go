package domain

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable matches every BackendError via errors.Is.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Backend names a search collaborator.
type Backend string

// Backends.
const (
	BackendIndex Backend = "index"
	BackendStore Backend = "store"
)

// Failure reasons recorded on a BackendError.
const (
	ReasonTimeout              = "timeout"
	ReasonCanceled             = "canceled"
	ReasonUnreachable          = "unreachable"
	ReasonBadStatus            = "bad_status"
	ReasonMalformedResponse    = "malformed_response"
	ReasonCircuitOpen          = "circuit_open"
	ReasonResultWindowExceeded = "result_window_exceeded"
	ReasonDisabled             = "disabled"
	ReasonQueryFailed          = "query_failed"
)

// BackendError reports that a backend could not serve a request.
type BackendError struct {
	Backend Backend
	Reason  string
	Err     error
}

// NewBackendError wraps err as a failure of backend for the given reason.
func NewBackendError(backend Backend, reason string, err error) *BackendError {
	return &BackendError{Backend: backend, Reason: reason, Err: err}
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend unavailable (%s): %v", e.Backend, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s backend unavailable (%s)", e.Backend, e.Reason)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes every BackendError match ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// FailureReason extracts the reason from a BackendError anywhere in err's
// chain. Other errors report ReasonQueryFailed.
func FailureReason(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Reason
	}
	return ReasonQueryFailed
}
