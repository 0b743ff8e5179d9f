package index

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
	"github.com/congquynguyen296/hq-shop/pkg/breaker"
)

// Guarded wraps an Index with a circuit breaker on the search path. Once the
// breaker opens, searches fail immediately with reason circuit_open instead
// of waiting on a dead index.
type Guarded struct {
	next    Index
	breaker *breaker.Breaker
}

var _ Index = (*Guarded)(nil)

// NewGuarded wraps idx with a breaker built from cfg.
func NewGuarded(idx Index, cfg breaker.Config, logger *slog.Logger) *Guarded {
	return &Guarded{
		next:    idx,
		breaker: breaker.New(cfg, countsAsSuccess, logger),
	}
}

// countsAsSuccess keeps caller cancellation from counting against the index.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// Search runs the query through the breaker.
func (g *Guarded) Search(ctx context.Context, q *query.IndexQuery) (*Hits, error) {
	hits, err := breaker.Execute(g.breaker, func() (*Hits, error) {
		return g.next.Search(ctx, q)
	})
	if breaker.IsRejected(err) {
		return nil, domain.NewBackendError(domain.BackendIndex, domain.ReasonCircuitOpen, err)
	}
	return hits, err
}

// Index forwards to the wrapped index. Writes bypass the breaker.
func (g *Guarded) Index(ctx context.Context, p *domain.Product) error {
	return g.next.Index(ctx, p)
}

func (g *Guarded) BulkIndex(ctx context.Context, products []domain.Product) error {
	return g.next.BulkIndex(ctx, products)
}

func (g *Guarded) Delete(ctx context.Context, id string) error {
	return g.next.Delete(ctx, id)
}

func (g *Guarded) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}
