// Package health serves liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a readiness probe.
const DefaultCheckTimeout = 5 * time.Second

// Checker reports the health of one dependency.
type Checker func(ctx context.Context) error

// Status is the health of a component or of the whole service.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the JSON body of both endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status    Status `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type check struct {
	fn       Checker
	critical bool
}

// Handler runs registered checks. A failing critical check makes the service
// not ready (503); a failing non-critical check only marks it degraded.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
}

// NewHandler creates a handler with no checks.
func NewHandler() *Handler {
	return &Handler{
		checks:  make(map[string]check),
		timeout: DefaultCheckTimeout,
	}
}

// RegisterCritical adds a check whose failure makes the service not ready.
// A check registered under an existing name replaces it.
func (h *Handler) RegisterCritical(name string, fn Checker) {
	h.add(name, check{fn: fn, critical: true})
}

// RegisterNonCritical adds a check whose failure degrades the service but
// keeps it ready.
func (h *Handler) RegisterNonCritical(name string, fn Checker) {
	h.add(name, check{fn: fn})
}

func (h *Handler) add(name string, c check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = c
}

// LivenessHandler always reports up while the process serves requests.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler runs every check concurrently and reports the aggregate.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())

		code := http.StatusOK
		if resp.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, resp)
	}
}

// Check runs every registered check and aggregates the result.
func (h *Handler) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	checks := make(map[string]check, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)
	for name, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := c.fn(ctx)
			res := CheckResult{
				Status:    StatusUp,
				Critical:  c.critical,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				res.Status = StatusDown
				res.Error = err.Error()
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	overall := StatusUp
	for _, res := range results {
		if res.Status != StatusDown {
			continue
		}
		if res.Critical {
			overall = StatusDown
			break
		}
		overall = StatusDegraded
	}

	return Response{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Checks:    results,
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
