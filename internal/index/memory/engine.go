// Package memory implements an in-memory search index with fuzzy term
// matching, used for local runs and tests.
package memory

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/index"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

// Engine is an in-memory index.Index. Thread-safe via sync.RWMutex.
type Engine struct {
	mu        sync.RWMutex
	products  map[string]domain.Product
	indexedAt map[string]time.Time

	// Err, when set, is returned by Search and Ping.
	Err error
}

var (
	_ index.Index  = (*Engine)(nil)
	_ index.Pruner = (*Engine)(nil)
)

// New creates an empty in-memory index.
func New() *Engine {
	return &Engine{
		products:  make(map[string]domain.Product),
		indexedAt: make(map[string]time.Time),
	}
}

// Index adds or updates a single product.
func (e *Engine) Index(_ context.Context, p *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.put(*p, time.Now())
	return nil
}

// BulkIndex adds or updates multiple products.
func (e *Engine) BulkIndex(_ context.Context, products []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for i := range products {
		e.put(products[i], now)
	}
	return nil
}

func (e *Engine) put(doc domain.Product, at time.Time) {
	doc.Score = 0
	e.products[doc.ID] = doc
	e.indexedAt[doc.ID] = at
}

// Delete removes a product by id.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.products, id)
	delete(e.indexedAt, id)
	return nil
}

// PruneIndexedBefore removes documents written before cutoff.
func (e *Engine) PruneIndexedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var n int64
	for id := range e.products {
		if e.indexedAt[id].Before(cutoff) {
			delete(e.products, id)
			delete(e.indexedAt, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products)
}

// Ping reports the configured error, if any.
func (e *Engine) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewBackendError(domain.BackendIndex, domain.ReasonCanceled, err)
	}
	return e.Err
}

// Search evaluates q against every document. Every query term must match a
// word in one of the searched fields, allowing the same edit distance as
// Elasticsearch's AUTO fuzziness with an exact first letter.
func (e *Engine) Search(ctx context.Context, q *query.IndexQuery) (*index.Hits, error) {
	if err := ctx.Err(); err != nil {
		reason := domain.ReasonTimeout
		if err == context.Canceled {
			reason = domain.ReasonCanceled
		}
		return nil, domain.NewBackendError(domain.BackendIndex, reason, err)
	}
	if e.Err != nil {
		return nil, e.Err
	}

	fields := parseFields(q.Fields)
	terms := tokenize(q.Text)

	e.mu.RLock()
	matched := make([]domain.Product, 0)
	for _, p := range e.products {
		if !query.Match(&p, q.Filters) {
			continue
		}
		if len(terms) > 0 {
			score, ok := scoreTerms(&p, terms, fields)
			if !ok {
				continue
			}
			p.Score = score
		}
		p.Tags = slices.Clone(p.Tags)
		if p.Tags == nil {
			p.Tags = []string{}
		}
		matched = append(matched, p)
	}
	e.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Product) int {
		return query.Compare(&a, &b, q.Sort)
	})

	start := min(q.From, len(matched))
	end := min(start+q.Size, len(matched))
	return &index.Hits{
		Total: int64(len(matched)),
		Items: matched[start:end],
	}, nil
}

type weightedField struct {
	name   string
	weight float64
}

// parseFields reads "name^5" style boosts.
func parseFields(boosted []string) []weightedField {
	out := make([]weightedField, 0, len(boosted))
	for _, field := range boosted {
		name, boost, found := strings.Cut(field, "^")
		weight := 1.0
		if found {
			if w, err := strconv.ParseFloat(boost, 64); err == nil {
				weight = w
			}
		}
		out = append(out, weightedField{name: name, weight: weight})
	}
	return out
}

// scoreTerms requires every term to match somewhere. Each term contributes
// the weight of the best field it matched, halved for a fuzzy match.
func scoreTerms(p *domain.Product, terms []string, fields []weightedField) (float64, bool) {
	var total float64
	for _, term := range terms {
		best := 0.0
		for _, f := range fields {
			for _, v := range query.StringField(p, f.name) {
				for _, word := range tokenize(v) {
					var s float64
					switch {
					case word == term:
						s = f.weight
					case fuzzyMatch(term, word):
						s = f.weight / 2
					}
					best = max(best, s)
				}
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}

// fuzzyMatch applies AUTO fuzziness with prefix length 1.
func fuzzyMatch(term, word string) bool {
	t, w := []rune(term), []rune(word)
	if len(t) == 0 || len(w) == 0 || t[0] != w[0] {
		return false
	}
	allowed := autoFuzziness(len(t))
	if allowed == 0 {
		return false
	}
	if d := len(t) - len(w); d > allowed || -d > allowed {
		return false
	}
	return levenshtein(t, w) <= allowed
}

// autoFuzziness is the edit distance Elasticsearch allows for a term length.
func autoFuzziness(n int) int {
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
