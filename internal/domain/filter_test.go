package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congquynguyen296/hq-shop/pkg/validator"
)

func parse(t *testing.T, raw string) (*Filter, error) {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return ParseFilter(values)
}

func TestParseFilter_Defaults(t *testing.T) {
	f, err := parse(t, "")
	require.NoError(t, err)

	assert.Empty(t, f.TextQuery)
	assert.Equal(t, SortRelevance, f.SortBy)
	assert.Equal(t, SortDesc, f.SortOrder)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 12, f.Limit)
	assert.Nil(t, f.Category)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.IsBestSeller)
}

func TestParseFilter_TextQuery(t *testing.T) {
	f, err := parse(t, "q=+wireless+mouse+")
	require.NoError(t, err)
	assert.Equal(t, "wireless mouse", f.TextQuery)
	assert.True(t, f.HasText())

	f, err = parse(t, "query=laptop")
	require.NoError(t, err)
	assert.Equal(t, "laptop", f.TextQuery)

	f, err = parse(t, "q=%20%20")
	require.NoError(t, err)
	assert.False(t, f.HasText())
}

func TestParseFilter_SetValuedFacets(t *testing.T) {
	f, err := parse(t, "category=Phones&category=Laptops&category=Phones&category=+&brand=Acme&tags=sale&tags=new")
	require.NoError(t, err)

	assert.Equal(t, []string{"Phones", "Laptops"}, f.Category)
	assert.Equal(t, []string{"Acme"}, f.Brand)
	assert.Equal(t, []string{"sale", "new"}, f.Tags)
}

func TestParseFilter_NumericBounds(t *testing.T) {
	f, err := parse(t, "minPrice=10&maxPrice=99.5&minDiscount=5&maxDiscount=50&minRating=4&minViews=100&minSold=3")
	require.NoError(t, err)

	require.NotNil(t, f.MinPrice)
	assert.Equal(t, 10.0, *f.MinPrice)
	assert.Equal(t, 99.5, *f.MaxPrice)
	assert.Equal(t, 5.0, *f.MinDiscount)
	assert.Equal(t, 50.0, *f.MaxDiscount)
	assert.Equal(t, 4.0, *f.MinRating)
	assert.Equal(t, 100.0, *f.MinViews)
	assert.Equal(t, 3.0, *f.MinSold)
}

func TestParseFilter_UnparsableNumbersAreDropped(t *testing.T) {
	f, err := parse(t, "minPrice=cheap&maxPrice=NaN&minRating=Inf&minSold=7")
	require.NoError(t, err)

	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.Nil(t, f.MinRating)
	require.NotNil(t, f.MinSold)
	assert.Equal(t, 7.0, *f.MinSold)
}

func TestParseFilter_Flags(t *testing.T) {
	f, err := parse(t, "isBestSeller=true&isNewProduct=0")
	require.NoError(t, err)
	require.NotNil(t, f.IsBestSeller)
	assert.True(t, *f.IsBestSeller)
	require.NotNil(t, f.IsNewProduct)
	assert.False(t, *f.IsNewProduct)

	f, err = parse(t, "isBestSeller=maybe")
	require.NoError(t, err)
	assert.Nil(t, f.IsBestSeller)
}

func TestParseFilter_SortAndPaging(t *testing.T) {
	f, err := parse(t, "sortBy=price&sortOrder=asc&page=3&limit=24")
	require.NoError(t, err)

	assert.Equal(t, SortPrice, f.SortBy)
	assert.Equal(t, SortAsc, f.SortOrder)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 24, f.Limit)
	assert.Equal(t, 48, f.Offset())
}

func TestParseFilter_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"zero page", "page=0", "page"},
		{"negative page", "page=-2", "page"},
		{"non numeric page", "page=two", "page"},
		{"zero limit", "limit=0", "limit"},
		{"page offset overflows", "page=9223372036854775807&limit=12", "page"},
		{"non numeric limit", "limit=lots", "limit"},
		{"unknown sort field", "sortBy=popularity", "sortBy"},
		{"unknown sort order", "sortOrder=up", "sortOrder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parse(t, tt.raw)
			require.Error(t, err)
			assert.Nil(t, f)

			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
		})
	}
}

func TestParseFilter_ClampsLimit(t *testing.T) {
	f, err := parse(t, "limit=500")
	require.NoError(t, err)
	assert.Equal(t, 100, f.Limit)
}

func TestParseFilter_LargestPageKeepsOffsetPositive(t *testing.T) {
	f, err := parse(t, "page=92233720368547758&limit=100")
	require.NoError(t, err)
	assert.Positive(t, f.Offset())
}

func TestParseFilter_ReportsEveryBadField(t *testing.T) {
	_, err := parse(t, "page=x&sortBy=nope")

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "page")
	assert.Contains(t, fields, "sortBy")
}

func TestFilter_EffectiveSort(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantField SortField
		wantOrder SortOrder
		relevance bool
	}{
		{"relevance with text", Filter{TextQuery: "phone", SortBy: SortRelevance, SortOrder: SortAsc}, SortRelevance, SortDesc, true},
		{"relevance without text", Filter{SortBy: SortRelevance, SortOrder: SortAsc}, SortCreatedAt, SortDesc, false},
		{"explicit field", Filter{TextQuery: "phone", SortBy: SortPrice, SortOrder: SortAsc}, SortPrice, SortAsc, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, order := tt.filter.EffectiveSort()
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantOrder, order)
			assert.Equal(t, tt.relevance, tt.filter.RanksByRelevance())
		})
	}
}
