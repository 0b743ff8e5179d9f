// Package index defines the full-text search index the search core queries
// first, plus the wrappers that isolate request handling from its failures.
package index

import (
	"context"
	"time"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

// Hits is one page of index matches.
type Hits struct {
	Total int64
	Items []domain.Product
}

// Index is a search index over product projections. Implementations must be
// safe for concurrent use. Read failures are reported as *domain.BackendError
// with Backend set to domain.BackendIndex.
type Index interface {
	Search(ctx context.Context, q *query.IndexQuery) (*Hits, error)

	// Index adds or replaces one product document.
	Index(ctx context.Context, p *domain.Product) error

	// BulkIndex adds or replaces many product documents in one request.
	BulkIndex(ctx context.Context, products []domain.Product) error

	// Delete removes a product document. A missing document is not an error.
	Delete(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// Pruner is implemented by indexes that stamp every write with the time it
// was indexed. A full sync uses it to drop documents it did not rewrite,
// such as products deleted while events were not delivered.
type Pruner interface {
	// PruneIndexedBefore deletes documents last written before cutoff,
	// including documents that carry no stamp, and reports how many went.
	PruneIndexedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Disabled is an Index that is switched off. Reads fail with reason
// disabled so searches go straight to the store; writes are dropped.
type Disabled struct{}

func (Disabled) Search(context.Context, *query.IndexQuery) (*Hits, error) {
	return nil, domain.NewBackendError(domain.BackendIndex, domain.ReasonDisabled, nil)
}

func (Disabled) Index(context.Context, *domain.Product) error { return nil }

func (Disabled) BulkIndex(context.Context, []domain.Product) error { return nil }

func (Disabled) Delete(context.Context, string) error { return nil }

func (Disabled) Ping(context.Context) error {
	return domain.NewBackendError(domain.BackendIndex, domain.ReasonDisabled, nil)
}
