// Package memory implements an in-memory product store for local runs and
// tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

// textWeights ranks a text match by the field it was found in.
var textWeights = map[string]float64{
	domain.FieldName:        5,
	domain.FieldDescription: 3,
	domain.FieldCategory:    2,
	domain.FieldBrand:       2,
	domain.FieldTags:        1,
}

// Store keeps products in insertion order. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int

	// Err, when set, is returned by every read.
	Err error
}

// New creates a store seeded with products.
func New(products ...domain.Product) *Store {
	s := &Store{byID: make(map[string]int)}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// Put inserts or replaces a product by id.
func (s *Store) Put(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byID[p.ID]; ok {
		s.products[i] = p
		return
	}
	s.byID[p.ID] = len(s.products)
	s.products = append(s.products, p)
}

// Upsert puts every product.
func (s *Store) Upsert(ctx context.Context, products []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range products {
		s.Put(p)
	}
	return nil
}

// Remove deletes a product by id.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return
	}
	s.products = slices.Delete(s.products, i, i+1)
	delete(s.byID, id)
	for j := i; j < len(s.products); j++ {
		s.byID[s.products[j].ID] = j
	}
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		reason := domain.ReasonTimeout
		if err == context.Canceled {
			reason = domain.ReasonCanceled
		}
		return domain.NewBackendError(domain.BackendStore, reason, err)
	}
	if s.Err != nil {
		return domain.NewBackendError(domain.BackendStore, domain.FailureReason(s.Err), s.Err)
	}
	return nil
}

// matches returns copies of the records satisfying q's conditions, scored
// when q has text, in insertion order.
func (s *Store) matches(q *query.StoreQuery) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := tokenize(q.Text)
	var out []domain.Product
	for i := range s.products {
		p := s.products[i]
		if !query.Match(&p, q.Predicates) || !query.MatchAny(&p, q.AnyOf) {
			continue
		}
		if len(terms) > 0 {
			p.Score = textScore(&p, terms)
			if p.Score == 0 {
				continue
			}
		}
		p.Tags = slices.Clone(p.Tags)
		out = append(out, p)
	}
	return out
}

// Find returns the matching records sorted and paged per q.
func (s *Store) Find(ctx context.Context, q *query.StoreQuery) ([]domain.Product, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	items := s.matches(q)
	if len(q.Sort) > 0 {
		slices.SortStableFunc(items, func(a, b domain.Product) int {
			return query.Compare(&a, &b, q.Sort)
		})
	}

	start := min(max(int(q.Skip), 0), len(items))
	items = items[start:]
	if q.Limit > 0 && int(q.Limit) < len(items) {
		items = items[:q.Limit]
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, nil
}

// Count returns the number of matching records.
func (s *Store) Count(ctx context.Context, q *query.StoreQuery) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return int64(len(s.matches(q.CountQuery()))), nil
}

// Distinct returns the distinct non-empty values of field, ascending.
func (s *Store) Distinct(ctx context.Context, field string) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	values := []string{}
	for i := range s.products {
		for _, v := range query.StringField(&s.products[i], field) {
			if _, ok := seen[v]; ok || v == "" {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return values, nil
}

// GroupCount returns the most frequent non-empty values of field.
func (s *Store) GroupCount(ctx context.Context, field string, limit int) ([]domain.ValueCount, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	counts := make(map[string]int64)
	for i := range s.products {
		for _, v := range query.StringField(&s.products[i], field) {
			if v != "" {
				counts[v]++
			}
		}
	}
	s.mu.RUnlock()

	out := make([]domain.ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, domain.ValueCount{Value: v, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.ValueCount) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Value, b.Value)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MinMax returns the bounds of a numeric field, {0, 0} when empty.
func (s *Store) MinMax(ctx context.Context, field string) (domain.Range, error) {
	if err := s.check(ctx); err != nil {
		return domain.Range{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var r domain.Range
	seen := false
	for i := range s.products {
		v, ok := query.NumericField(&s.products[i], field)
		if !ok {
			continue
		}
		if !seen || v < r.Min {
			r.Min = v
		}
		if !seen || v > r.Max {
			r.Max = v
		}
		seen = true
	}
	return r, nil
}

// Ping reports the configured error, if any.
func (s *Store) Ping(ctx context.Context) error {
	return s.check(ctx)
}

// textScore sums the field weights of every query term found as a whole word.
// Any matching term is enough for a record to match.
func textScore(p *domain.Product, terms []string) float64 {
	var score float64
	for field, weight := range textWeights {
		for _, v := range query.StringField(p, field) {
			words := tokenize(v)
			for _, term := range terms {
				if slices.Contains(words, term) {
					score += weight
				}
			}
		}
	}
	return score
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
