package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// MaxResultWindow is the largest from+size the index serves, matching
// Elasticsearch's default index.max_result_window.
const MaxResultWindow = 10000

// ScoreKey sorts by index relevance.
const ScoreKey = "_score"

// ErrResultWindowExceeded is returned when a page lies beyond MaxResultWindow.
var ErrResultWindowExceeded = errors.New("requested page is beyond the index result window")

// IndexFields are the weighted fields searched by a text query.
var IndexFields = []string{
	domain.FieldName + "^5",
	domain.FieldDescription + "^3",
	domain.FieldCategory + "^2",
	domain.FieldBrand + "^2",
	domain.FieldTags,
}

// keywordFields are text fields filtered through their keyword sub-field.
var keywordFields = map[string]bool{
	domain.FieldCategory: true,
	domain.FieldBrand:    true,
	domain.FieldTags:     true,
}

// IndexQuery is a compiled search index query.
type IndexQuery struct {
	Text      string
	Fields    []string
	Fuzziness string
	Filters   []Predicate
	Sort      []SortKey
	From      int
	Size      int
}

// CompileIndex translates a filter into an index query. A page beyond
// MaxResultWindow fails with an index BackendError so the caller can serve
// it from the store instead.
func CompileIndex(f *domain.Filter) (*IndexQuery, error) {
	from := f.Offset()
	if from < 0 || from > MaxResultWindow-f.Limit {
		return nil, domain.NewBackendError(domain.BackendIndex, domain.ReasonResultWindowExceeded,
			fmt.Errorf("%w: from %d + size %d > %d", ErrResultWindowExceeded, from, f.Limit, MaxResultWindow))
	}

	q := &IndexQuery{
		Fields:    IndexFields,
		Fuzziness: "AUTO",
		Filters:   Predicates(f),
		From:      from,
		Size:      f.Limit,
	}
	if f.HasText() {
		q.Text = strings.TrimSpace(f.TextQuery)
	}

	field, order := f.EffectiveSort()
	if field == domain.SortRelevance {
		q.Sort = []SortKey{{Field: ScoreKey, Desc: true}}
	} else {
		q.Sort = []SortKey{{Field: string(field), Desc: order == domain.SortDesc}}
		if q.Text != "" {
			q.Sort = append(q.Sort, SortKey{Field: ScoreKey, Desc: true})
		}
	}
	q.Sort = append(q.Sort, SortKey{Field: domain.FieldID})

	return q, nil
}

// DSL renders the query as an Elasticsearch search request body.
func (q *IndexQuery) DSL() map[string]interface{} {
	var must interface{}
	if q.Text != "" {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":         q.Text,
				"fields":        q.Fields,
				"type":          "best_fields",
				"fuzziness":     q.Fuzziness,
				"prefix_length": 1,
				"operator":      "and",
			},
		}
	} else {
		must = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{must},
	}
	if len(q.Filters) > 0 {
		filters := make([]interface{}, 0, len(q.Filters))
		for _, p := range q.Filters {
			filters = append(filters, filterClause(p))
		}
		boolQuery["filter"] = filters
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort":             sortClause(q.Sort),
		"from":             q.From,
		"size":             q.Size,
		"track_total_hits": true,
	}
}

func filterClause(p Predicate) map[string]interface{} {
	field := p.Field
	if keywordFields[field] {
		field += ".keyword"
	}

	switch p.Op {
	case OpIn:
		return map[string]interface{}{
			"terms": map[string]interface{}{field: p.Values},
		}
	case OpRange:
		bounds := map[string]interface{}{}
		if p.Min != nil {
			bounds["gte"] = *p.Min
		}
		if p.Max != nil {
			bounds["lte"] = *p.Max
		}
		return map[string]interface{}{
			"range": map[string]interface{}{field: bounds},
		}
	case OpContains:
		return map[string]interface{}{
			"wildcard": map[string]interface{}{
				field: map[string]interface{}{
					"value":            "*" + fmt.Sprint(p.Values[0]) + "*",
					"case_insensitive": true,
				},
			},
		}
	default:
		return map[string]interface{}{
			"term": map[string]interface{}{field: p.Values[0]},
		}
	}
}

func sortClause(keys []SortKey) []interface{} {
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		order := "asc"
		if k.Desc {
			order = "desc"
		}
		if k.Field == ScoreKey {
			out = append(out, map[string]interface{}{ScoreKey: map[string]interface{}{"order": order}})
			continue
		}
		out = append(out, map[string]interface{}{
			k.Field: map[string]interface{}{"order": order, "missing": "_last"},
		})
	}
	return out
}
