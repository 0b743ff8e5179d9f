// Package store defines the document store the search core reads from.
package store

import (
	"context"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

// ProductStore is the source-of-truth product collection. Implementations
// must be safe for concurrent use. Failures are reported as
// *domain.BackendError with Backend set to domain.BackendStore.
type ProductStore interface {
	// Find returns the records matching q in q's sort order, honouring
	// q.Skip and q.Limit. When q.Text is set each record carries its Score.
	Find(ctx context.Context, q *query.StoreQuery) ([]domain.Product, error)

	// Count returns the number of records matching q, ignoring paging.
	Count(ctx context.Context, q *query.StoreQuery) (int64, error)

	// Distinct returns the distinct non-empty values of field, ascending.
	Distinct(ctx context.Context, field string) ([]string, error)

	// GroupCount returns the most frequent non-empty values of field,
	// count descending with ties broken by ascending value, at most limit.
	GroupCount(ctx context.Context, field string, limit int) ([]domain.ValueCount, error)

	// MinMax returns the smallest and largest value of a numeric field.
	// An empty collection yields {0, 0}.
	MinMax(ctx context.Context, field string) (domain.Range, error)

	Ping(ctx context.Context) error
}
