package domain

import "github.com/congquynguyen296/hq-shop/pkg/pagination"

// Source identifies which backend produced a search result.
type Source string

// Search backends.
const (
	SourceIndex Source = "index"
	SourceStore Source = "store"
)

// SearchResult is the normalized envelope returned by every search path.
type SearchResult struct {
	Items      []Product       `json:"data"`
	Pagination pagination.Page `json:"pagination"`
	Source     Source          `json:"source"`

	// FallbackReason is set when the index was attempted and the result
	// came from the store instead.
	FallbackReason string `json:"-"`
}

// NewSearchResult assembles a result envelope for the given filter.
func NewSearchResult(items []Product, total int64, f *Filter, source Source) *SearchResult {
	if items == nil {
		items = []Product{}
	}
	return &SearchResult{
		Items:      items,
		Pagination: pagination.New(f.Page, f.Limit, total),
		Source:     source,
	}
}
