package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

func TestCompileIndex_TextQuery(t *testing.T) {
	f := baseFilter()
	f.TextQuery = "  wireless mouse "

	q, err := CompileIndex(f)
	require.NoError(t, err)

	assert.Equal(t, "wireless mouse", q.Text)
	assert.Equal(t, []string{"name^5", "description^3", "category^2", "brand^2", "tags"}, q.Fields)
	assert.Equal(t, "AUTO", q.Fuzziness)
	assert.Equal(t, []SortKey{{Field: ScoreKey, Desc: true}, {Field: domain.FieldID}}, q.Sort)
	assert.Equal(t, 0, q.From)
	assert.Equal(t, 12, q.Size)
}

func TestCompileIndex_ExplicitSortKeepsScoreAsTieBreak(t *testing.T) {
	f := baseFilter()
	f.TextQuery = "mouse"
	f.SortBy = domain.SortPrice
	f.SortOrder = domain.SortAsc

	q, err := CompileIndex(f)
	require.NoError(t, err)

	assert.Equal(t, []SortKey{
		{Field: domain.FieldPrice},
		{Field: ScoreKey, Desc: true},
		{Field: domain.FieldID},
	}, q.Sort)
}

func TestCompileIndex_RelevanceWithoutText(t *testing.T) {
	q, err := CompileIndex(baseFilter())
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{Field: domain.FieldCreatedAt, Desc: true}, {Field: domain.FieldID}}, q.Sort)
}

func TestCompileIndex_ResultWindow(t *testing.T) {
	f := baseFilter()
	f.Limit = 100
	f.Page = 100

	_, err := CompileIndex(f)
	require.NoError(t, err, "from+size of exactly the window is allowed")

	f.Page = 101
	_, err = CompileIndex(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResultWindowExceeded))
	assert.True(t, errors.Is(err, domain.ErrBackendUnavailable))
	assert.Equal(t, domain.ReasonResultWindowExceeded, domain.FailureReason(err))
}

// renderDSL round-trips the DSL through JSON so assertions see the wire form.
func renderDSL(t *testing.T, q *IndexQuery) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(q.DSL())
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestIndexQuery_DSL(t *testing.T) {
	f := baseFilter()
	f.TextQuery = "laptop"
	f.Category = []string{"Computers"}
	f.Brand = []string{"Acme", "Globex"}
	f.MinPrice = ptr(100.0)
	f.IsNewProduct = ptr(true)
	f.SortBy = domain.SortRating
	f.Page = 2
	f.Limit = 10

	q, err := CompileIndex(f)
	require.NoError(t, err)

	want := `{
		"query": {"bool": {
			"must": [{"multi_match": {
				"query": "laptop",
				"fields": ["name^5", "description^3", "category^2", "brand^2", "tags"],
				"type": "best_fields",
				"fuzziness": "AUTO",
				"prefix_length": 1,
				"operator": "and"
			}}],
			"filter": [
				{"term": {"category.keyword": "Computers"}},
				{"terms": {"brand.keyword": ["Acme", "Globex"]}},
				{"range": {"price": {"gte": 100}}},
				{"term": {"isNewProduct": true}}
			]
		}},
		"sort": [
			{"rating": {"order": "desc", "missing": "_last"}},
			{"_score": {"order": "desc"}},
			{"id": {"order": "asc", "missing": "_last"}}
		],
		"from": 10,
		"size": 10,
		"track_total_hits": true
	}`
	raw, err := json.Marshal(q.DSL())
	require.NoError(t, err)
	assert.JSONEq(t, want, string(raw))
}

func TestIndexQuery_DSLMatchAllWithoutText(t *testing.T) {
	q, err := CompileIndex(baseFilter())
	require.NoError(t, err)

	dsl := renderDSL(t, q)
	boolQuery := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	assert.Contains(t, must[0], "match_all")
	assert.NotContains(t, boolQuery, "filter")
}
