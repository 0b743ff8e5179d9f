// Package query compiles a domain.Filter into the query shapes understood by
// the document store and the search index.
package query

import (
	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// Op is a predicate operator.
type Op int

// Predicate operators.
const (
	OpEq Op = iota + 1
	OpIn
	OpRange
	OpContains
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpRange:
		return "range"
	case OpContains:
		return "contains"
	default:
		return "unknown"
	}
}

// Predicate is a single condition on a product field. Array fields such as
// tags match when any element satisfies the condition.
type Predicate struct {
	Field  string
	Op     Op
	Values []any

	// Min and Max bound OpRange inclusively. A nil bound is open.
	Min *float64
	Max *float64
}

// Eq matches records whose field equals v.
func Eq(field string, v any) Predicate {
	return Predicate{Field: field, Op: OpEq, Values: []any{v}}
}

// In matches records whose field equals any of values.
func In(field string, values []string) Predicate {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Predicate{Field: field, Op: OpIn, Values: vs}
}

// Range matches records whose numeric field lies within [min, max].
func Range(field string, min, max *float64) Predicate {
	return Predicate{Field: field, Op: OpRange, Min: min, Max: max}
}

// Contains matches records whose field holds fragment as a case-insensitive
// substring.
func Contains(field, fragment string) Predicate {
	return Predicate{Field: field, Op: OpContains, Values: []any{fragment}}
}

// Strings returns the predicate values that are strings.
func (p Predicate) Strings() []string {
	out := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SortKey orders results by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Predicates returns one predicate per populated field of f. The text query
// is not a predicate; each backend handles it natively.
func Predicates(f *domain.Filter) []Predicate {
	var preds []Predicate

	if p, ok := facet(domain.FieldCategory, f.Category); ok {
		preds = append(preds, p)
	}
	if p, ok := facet(domain.FieldBrand, f.Brand); ok {
		preds = append(preds, p)
	}
	if len(f.Tags) > 0 {
		preds = append(preds, In(domain.FieldTags, f.Tags))
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		preds = append(preds, Range(domain.FieldPrice, f.MinPrice, f.MaxPrice))
	}
	if f.MinDiscount != nil || f.MaxDiscount != nil {
		preds = append(preds, Range(domain.FieldDiscount, f.MinDiscount, f.MaxDiscount))
	}
	if f.MinRating != nil {
		preds = append(preds, Range(domain.FieldRating, f.MinRating, nil))
	}
	if f.MinViews != nil {
		preds = append(preds, Range(domain.FieldViews, f.MinViews, nil))
	}
	if f.MinSold != nil {
		preds = append(preds, Range(domain.FieldSold, f.MinSold, nil))
	}

	if f.IsBestSeller != nil {
		preds = append(preds, Eq(domain.FieldIsBestSeller, *f.IsBestSeller))
	}
	if f.IsNewProduct != nil {
		preds = append(preds, Eq(domain.FieldIsNewProduct, *f.IsNewProduct))
	}

	return preds
}

func facet(field string, values []string) (Predicate, bool) {
	switch len(values) {
	case 0:
		return Predicate{}, false
	case 1:
		return Eq(field, values[0]), true
	default:
		return In(field, values), true
	}
}
