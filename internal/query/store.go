package query

import (
	"strings"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// StoreQuery is a compiled document store query.
type StoreQuery struct {
	// Text is the full-text term. Empty means no text matching or scoring.
	Text string

	// Predicates must all match.
	Predicates []Predicate

	// AnyOf, when non-empty, requires at least one predicate to match.
	AnyOf []Predicate

	Sort  []SortKey
	Skip  int64
	Limit int64
}

// CountQuery returns the query used to count matches: same conditions,
// no sort or paging.
func (q *StoreQuery) CountQuery() *StoreQuery {
	return &StoreQuery{
		Text:       q.Text,
		Predicates: q.Predicates,
		AnyOf:      q.AnyOf,
	}
}

// CompileStore translates a filter into a store query.
func CompileStore(f *domain.Filter) *StoreQuery {
	q := &StoreQuery{
		Predicates: Predicates(f),
		Skip:       int64(f.Offset()),
		Limit:      int64(f.Limit),
	}
	if f.HasText() {
		q.Text = strings.TrimSpace(f.TextQuery)
	}

	field, order := f.EffectiveSort()
	if field == domain.SortRelevance {
		q.Sort = append(q.Sort, SortKey{Field: domain.FieldScore, Desc: true})
	} else {
		q.Sort = append(q.Sort, SortKey{Field: string(field), Desc: order == domain.SortDesc})
	}
	q.Sort = append(q.Sort, SortKey{Field: domain.FieldID})

	return q
}

// SuggestFields are searched, in order, for autocomplete fragments.
var SuggestFields = []string{
	domain.FieldName,
	domain.FieldBrand,
	domain.FieldCategory,
	domain.FieldTags,
}

// CompileSuggest builds the store query backing autocomplete: records where
// any suggest field contains fragment, at most limit of them, natural order.
func CompileSuggest(fragment string, limit int) *StoreQuery {
	q := &StoreQuery{Limit: int64(limit)}
	for _, field := range SuggestFields {
		q.AnyOf = append(q.AnyOf, Contains(field, fragment))
	}
	return q
}

// CompileScan builds a paged scan over the whole store in id order.
func CompileScan(skip, limit int64) *StoreQuery {
	return &StoreQuery{
		Sort:  []SortKey{{Field: domain.FieldID}},
		Skip:  skip,
		Limit: limit,
	}
}

// CompileByID matches a single product by business id.
func CompileByID(id string) *StoreQuery {
	return &StoreQuery{
		Predicates: []Predicate{Eq(domain.FieldID, id)},
		Limit:      1,
	}
}
