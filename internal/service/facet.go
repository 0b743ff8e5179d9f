package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/store"
)

// Popular limits.
const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 50
)

// DefaultAggregateTTL is how long cached aggregates are served.
const DefaultAggregateTTL = 5 * time.Minute

// Cache stores aggregate responses. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// FacetService computes catalog-wide aggregates: popular categories and
// brands, and the options available for filtering.
type FacetService struct {
	store  store.ProductStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewFacetService creates a facet service. cache may be nil.
func NewFacetService(st store.ProductStore, cache Cache, ttl time.Duration, logger *slog.Logger) *FacetService {
	if ttl <= 0 {
		ttl = DefaultAggregateTTL
	}
	return &FacetService{store: st, cache: cache, ttl: ttl, logger: logger}
}

// Popular returns the limit most frequent categories and brands, count
// descending with ties broken by ascending value. Products without a brand
// are not counted as a brand.
func (s *FacetService) Popular(ctx context.Context, limit int) (*domain.Popular, error) {
	limit = clamp(limit, DefaultPopularLimit, MaxPopularLimit)
	key := fmt.Sprintf("search:popular:%d", limit)

	var cached domain.Popular
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	var categories, brands []domain.ValueCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.store.GroupCount(gctx, domain.FieldCategory, limit)
		return err
	})
	g.Go(func() error {
		var err error
		brands, err = s.store.GroupCount(gctx, domain.FieldBrand, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeErr(ctx, err)
	}

	out := &domain.Popular{
		TopCategories: make([]domain.CategoryCount, 0, len(categories)),
		TopBrands:     make([]domain.BrandCount, 0, len(brands)),
	}
	for _, c := range categories {
		out.TopCategories = append(out.TopCategories, domain.CategoryCount{Category: c.Value, Count: c.Count})
	}
	for _, b := range brands {
		out.TopBrands = append(out.TopBrands, domain.BrandCount{Brand: b.Value, Count: b.Count})
	}

	s.remember(ctx, key, out)
	return out, nil
}

// FilterOptions returns the distinct categories and brands and the price
// and discount ranges across the whole catalog.
func (s *FacetService) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	const key = "search:filter-options"

	var cached domain.FilterOptions
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	out := &domain.FilterOptions{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Categories, err = s.store.Distinct(gctx, domain.FieldCategory)
		return err
	})
	g.Go(func() error {
		var err error
		out.Brands, err = s.store.Distinct(gctx, domain.FieldBrand)
		return err
	})
	g.Go(func() error {
		var err error
		out.PriceRange, err = s.store.MinMax(gctx, domain.FieldPrice)
		return err
	})
	g.Go(func() error {
		var err error
		out.DiscountRange, err = s.store.MinMax(gctx, domain.FieldDiscount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeErr(ctx, err)
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.Brands == nil {
		out.Brands = []string{}
	}

	s.remember(ctx, key, out)
	return out, nil
}

func (s *FacetService) storeErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return storeUnavailable(err)
}

// lookup reads key from the cache. Cache failures count as a miss.
func (s *FacetService) lookup(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		aggregateCacheTotal.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "aggregate cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	if !ok {
		aggregateCacheTotal.WithLabelValues("miss").Inc()
		return false
	}
	aggregateCacheTotal.WithLabelValues("hit").Inc()
	return true
}

func (s *FacetService) remember(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "aggregate cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
