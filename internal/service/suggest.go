package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
	"github.com/congquynguyen296/hq-shop/internal/store"
	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
)

// Suggestion limits.
const (
	MinFragmentLength      = 2
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 50
)

// SuggestService answers autocomplete requests from the store.
type SuggestService struct {
	store  store.ProductStore
	logger *slog.Logger
}

// NewSuggestService creates a suggestion service.
func NewSuggestService(st store.ProductStore, logger *slog.Logger) *SuggestService {
	return &SuggestService{store: st, logger: logger}
}

// Suggest returns at most limit distinct values that contain fragment,
// case-insensitively. Each matching record contributes its name, brand,
// category and tags in that order; a value already emitted under any type
// is skipped.
func (s *SuggestService) Suggest(ctx context.Context, fragment string, limit int) ([]domain.Suggestion, error) {
	fragment = strings.TrimSpace(fragment)
	if utf8.RuneCountInString(fragment) < MinFragmentLength {
		return nil, apperrors.InvalidQuery("query must be at least 2 characters")
	}
	limit = clamp(limit, DefaultSuggestionLimit, MaxSuggestionLimit)

	products, err := s.store.Find(ctx, query.CompileSuggest(fragment, limit))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, storeUnavailable(err)
	}

	return collectSuggestions(products, limit), nil
}

func collectSuggestions(products []domain.Product, limit int) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, limit)
	seen := make(map[string]struct{})
	add := func(t domain.SuggestionType, v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, domain.Suggestion{Type: t, Value: v})
	}

	for i := range products {
		p := &products[i]
		add(domain.SuggestionProduct, p.Name)
		add(domain.SuggestionBrand, p.Brand)
		add(domain.SuggestionCategory, p.Category)
		for _, tag := range p.Tags {
			add(domain.SuggestionTag, tag)
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// clamp maps a non-positive n to def and caps it at max.
func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
