package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/index"
	indexmem "github.com/congquynguyen296/hq-shop/internal/index/memory"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func catalog() []domain.Product {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Product{
		{ID: "p1", Name: "Phone X", Brand: "Acme", Category: "Phones", Tags: []string{"5g"}, Price: 500, Discount: 10, CreatedAt: base},
		{ID: "p2", Name: "Phone Y", Brand: "Acme", Category: "Phones", Tags: []string{"5g", "sale"}, Price: 300, Discount: 0, CreatedAt: base.Add(time.Hour)},
		{ID: "p3", Name: "Laptop Pro", Brand: "Globex", Category: "Laptops", Tags: []string{"work"}, Price: 1500, Discount: 25, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p4", Name: "Cable", Category: "Accessories", Price: 9.5, CreatedAt: base.Add(3 * time.Hour)},
	}
}

// countingIndex records Search calls on an in-memory engine.
type countingIndex struct {
	*indexmem.Engine
	calls atomic.Int32
}

func (c *countingIndex) Search(ctx context.Context, q *query.IndexQuery) (*index.Hits, error) {
	c.calls.Add(1)
	return c.Engine.Search(ctx, q)
}

// hangingIndex blocks until the attempt deadline passes.
type hangingIndex struct {
	index.Disabled
}

func (hangingIndex) Search(ctx context.Context, _ *query.IndexQuery) (*index.Hits, error) {
	<-ctx.Done()
	reason := domain.ReasonTimeout
	if errors.Is(ctx.Err(), context.Canceled) {
		reason = domain.ReasonCanceled
	}
	return nil, domain.NewBackendError(domain.BackendIndex, reason, ctx.Err())
}
