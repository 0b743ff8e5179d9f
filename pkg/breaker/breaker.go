// Package breaker wraps sony/gobreaker with the service's logging and metrics
// conventions.
package breaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// Config holds configuration for a circuit breaker.
type Config struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the maximum number of requests allowed in the half-open state.
	// 0 means 1 request is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing internal counts.
	// 0 means internal counts are never cleared during the closed state.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio is the ratio of failures to total requests that trips the breaker.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the failure ratio is evaluated.
	MinRequests uint32
}

// DefaultConfig returns sensible defaults for a circuit breaker.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrOpen is returned when the breaker is open and rejects the call.
var ErrOpen = gobreaker.ErrOpenState

// ErrTooManyRequests is returned when the breaker is half-open and already
// has MaxRequests probes in flight.
var ErrTooManyRequests = gobreaker.ErrTooManyRequests

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker guards calls to one dependency.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// New creates a breaker. isSuccessful decides whether a returned error counts
// against the dependency; nil counts every non-nil error as a failure.
func New(cfg Config, isSuccessful func(error) bool, logger *slog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: isSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker{
		cb:   gobreaker.NewCircuitBreaker[any](settings),
		name: cfg.Name,
	}
}

// Execute runs fn through the breaker. It returns ErrOpen or
// ErrTooManyRequests without calling fn when the breaker rejects the call.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if v, ok := res.(T); ok {
			return v, err
		}
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Do runs fn through the breaker.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// State returns the current state of the breaker.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// IsRejected reports whether err means the breaker refused the call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrOpen) || errors.Is(err, ErrTooManyRequests)
}
