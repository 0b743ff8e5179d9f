package query

import (
	"cmp"
	"strings"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// Match reports whether p satisfies every predicate in preds.
func Match(p *domain.Product, preds []Predicate) bool {
	for _, pred := range preds {
		if !matchOne(p, pred) {
			return false
		}
	}
	return true
}

// MatchAny reports whether p satisfies at least one of preds. An empty list
// matches everything.
func MatchAny(p *domain.Product, preds []Predicate) bool {
	if len(preds) == 0 {
		return true
	}
	for _, pred := range preds {
		if matchOne(p, pred) {
			return true
		}
	}
	return false
}

func matchOne(p *domain.Product, pred Predicate) bool {
	switch pred.Op {
	case OpEq, OpIn:
		if b, ok := boolField(p, pred.Field); ok {
			for _, v := range pred.Values {
				if want, ok := v.(bool); ok && want == b {
					return true
				}
			}
			return false
		}
		for _, have := range StringField(p, pred.Field) {
			for _, v := range pred.Values {
				if want, ok := v.(string); ok && want == have {
					return true
				}
			}
		}
		return false
	case OpRange:
		n, ok := NumericField(p, pred.Field)
		if !ok {
			return false
		}
		if pred.Min != nil && n < *pred.Min {
			return false
		}
		if pred.Max != nil && n > *pred.Max {
			return false
		}
		return true
	case OpContains:
		if len(pred.Values) == 0 {
			return false
		}
		fragment, _ := pred.Values[0].(string)
		fragment = strings.ToLower(fragment)
		for _, have := range StringField(p, pred.Field) {
			if strings.Contains(strings.ToLower(have), fragment) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// NumericField returns the value of a numeric product field.
func NumericField(p *domain.Product, field string) (float64, bool) {
	switch field {
	case domain.FieldPrice:
		return p.Price, true
	case domain.FieldOfferPrice:
		return p.OfferPrice, true
	case domain.FieldDiscount:
		return p.Discount, true
	case domain.FieldRating:
		return p.Rating, true
	case domain.FieldViews:
		return float64(p.Views), true
	case domain.FieldSold:
		return float64(p.Sold), true
	case domain.FieldScore, ScoreKey:
		return p.Score, true
	default:
		return 0, false
	}
}

// StringField returns the values of a string product field. Scalar fields
// yield at most one value; empty values are omitted.
func StringField(p *domain.Product, field string) []string {
	var v string
	switch field {
	case domain.FieldID:
		v = p.ID
	case domain.FieldName:
		v = p.Name
	case domain.FieldDescription:
		v = p.Description
	case domain.FieldCategory:
		v = p.Category
	case domain.FieldBrand:
		v = p.Brand
	case domain.FieldTags:
		return p.Tags
	default:
		return nil
	}
	if v == "" {
		return nil
	}
	return []string{v}
}

func boolField(p *domain.Product, field string) (bool, bool) {
	switch field {
	case domain.FieldIsBestSeller:
		return p.IsBestSeller, true
	case domain.FieldIsNewProduct:
		return p.IsNewProduct, true
	default:
		return false, false
	}
}

// Compare orders a and b by keys, returning -1, 0 or +1.
func Compare(a, b *domain.Product, keys []SortKey) int {
	for _, k := range keys {
		c := compareField(a, b, k.Field)
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareField(a, b *domain.Product, field string) int {
	switch field {
	case domain.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.FieldID:
		return cmp.Compare(a.ID, b.ID)
	}
	if x, ok := NumericField(a, field); ok {
		y, _ := NumericField(b, field)
		return cmp.Compare(x, y)
	}
	return cmp.Compare(strings.Join(StringField(a, field), ","), strings.Join(StringField(b, field), ","))
}
