// Package service implements the search read paths: routed product search,
// autocomplete suggestions and facet aggregates.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/index"
	"github.com/congquynguyen296/hq-shop/internal/query"
	"github.com/congquynguyen296/hq-shop/internal/store"
	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
)

// DefaultIndexTimeout bounds an index attempt when none is configured.
const DefaultIndexTimeout = 2 * time.Second

// SearchService routes each search to the index or the store. Text searches
// try the index once and fall back to the store on any index failure;
// searches without text go straight to the store.
type SearchService struct {
	index        index.Index
	store        store.ProductStore
	indexTimeout time.Duration
	logger       *slog.Logger
}

// NewSearchService creates a search service. indexTimeout bounds each index
// attempt and must be shorter than the request deadline.
func NewSearchService(idx index.Index, st store.ProductStore, indexTimeout time.Duration, logger *slog.Logger) *SearchService {
	if indexTimeout <= 0 {
		indexTimeout = DefaultIndexTimeout
	}
	return &SearchService{
		index:        idx,
		store:        st,
		indexTimeout: indexTimeout,
		logger:       logger,
	}
}

// Search runs f and returns one page of results. Store failures are terminal
// and surface as a 503 AppError. Caller cancellation is returned as is.
func (s *SearchService) Search(ctx context.Context, f *domain.Filter) (*domain.SearchResult, error) {
	if !f.HasText() {
		return s.fromStore(ctx, f, "")
	}

	res, err := s.fromIndex(ctx, f)
	if err == nil {
		searchRequestsTotal.WithLabelValues(string(domain.SourceIndex)).Inc()
		return res, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	reason := domain.FailureReason(err)
	indexFallbacksTotal.WithLabelValues(reason).Inc()
	s.logger.WarnContext(ctx, "index fallback",
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)

	return s.fromStore(ctx, f, reason)
}

func (s *SearchService) fromIndex(ctx context.Context, f *domain.Filter) (res *domain.SearchResult, err error) {
	ctx, span := tracer.Start(ctx, "search.index", trace.WithAttributes(
		attribute.String("search.query", f.TextQuery),
		attribute.Int("search.page", f.Page),
	))
	start := time.Now()
	defer func() {
		backendDuration.WithLabelValues(string(domain.BackendIndex)).Observe(time.Since(start).Seconds())
		endSpan(span, err)
	}()

	q, err := query.CompileIndex(f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
	defer cancel()

	hits, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return domain.NewSearchResult(hits.Items, hits.Total, f, domain.SourceIndex), nil
}

func (s *SearchService) fromStore(ctx context.Context, f *domain.Filter, fallbackReason string) (res *domain.SearchResult, err error) {
	ctx, span := tracer.Start(ctx, "search.store", trace.WithAttributes(
		attribute.Bool("search.fallback", fallbackReason != ""),
		attribute.Int("search.page", f.Page),
	))
	start := time.Now()
	defer func() {
		backendDuration.WithLabelValues(string(domain.BackendStore)).Observe(time.Since(start).Seconds())
		endSpan(span, err)
	}()

	q := query.CompileStore(f)

	var (
		items []domain.Product
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.Find(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, q.CountQuery())
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, storeUnavailable(err)
	}

	searchRequestsTotal.WithLabelValues(string(domain.SourceStore)).Inc()
	res = domain.NewSearchResult(items, total, f, domain.SourceStore)
	res.FallbackReason = fallbackReason
	return res, nil
}

// storeUnavailable maps a store failure to the client-facing 503.
func storeUnavailable(err error) error {
	if errors.Is(err, domain.ErrBackendUnavailable) {
		return apperrors.ServiceUnavailable("product store unavailable", err)
	}
	return fmt.Errorf("store query: %w", err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("search.failure_reason", domain.FailureReason(err)))
	}
	span.End()
}
