package domain

// SuggestionType classifies where a suggestion value came from.
type SuggestionType string

// Suggestion types, in the order they are emitted for a record.
const (
	SuggestionProduct  SuggestionType = "product"
	SuggestionBrand    SuggestionType = "brand"
	SuggestionCategory SuggestionType = "category"
	SuggestionTag      SuggestionType = "tag"
)

// Suggestion is a single autocomplete entry.
type Suggestion struct {
	Type  SuggestionType `json:"type"`
	Value string         `json:"value"`
}

// ValueCount is the number of records sharing a field value.
type ValueCount struct {
	Value string
	Count int64
}

// CategoryCount is a category with its product count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// BrandCount is a brand with its product count.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

// Popular holds the most frequent categories and brands.
type Popular struct {
	TopCategories []CategoryCount `json:"topCategories"`
	TopBrands     []BrandCount    `json:"topBrands"`
}

// Range is an inclusive numeric interval. An empty catalog yields {0, 0}.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions lists the values a client can filter search results by.
type FilterOptions struct {
	Categories    []string `json:"categories"`
	Brands        []string `json:"brands"`
	PriceRange    Range    `json:"priceRange"`
	DiscountRange Range    `json:"discountRange"`
}
