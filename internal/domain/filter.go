package domain

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/congquynguyen296/hq-shop/pkg/pagination"
	"github.com/congquynguyen296/hq-shop/pkg/validator"
)

// SortField names the attribute search results are ordered by.
type SortField string

// Sort fields accepted by search.
const (
	SortPrice     SortField = "price"
	SortRating    SortField = "rating"
	SortViews     SortField = "views"
	SortSold      SortField = "sold"
	SortDiscount  SortField = "discount"
	SortCreatedAt SortField = "createdAt"
	SortRelevance SortField = "relevance"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter is the backend-agnostic search request. It is built once per request
// by ParseFilter and must not be modified afterwards.
type Filter struct {
	TextQuery string `json:"query,omitempty"`

	Category []string `json:"category,omitempty"`
	Brand    []string `json:"brand,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	MinDiscount *float64 `json:"minDiscount,omitempty"`
	MaxDiscount *float64 `json:"maxDiscount,omitempty"`
	MinRating   *float64 `json:"minRating,omitempty"`
	MinViews    *float64 `json:"minViews,omitempty"`
	MinSold     *float64 `json:"minSold,omitempty"`

	IsBestSeller *bool `json:"isBestSeller,omitempty"`
	IsNewProduct *bool `json:"isNewProduct,omitempty"`

	SortBy    SortField `json:"sortBy" validate:"oneof=price rating views sold discount createdAt relevance"`
	SortOrder SortOrder `json:"sortOrder" validate:"oneof=asc desc"`
	Page      int       `json:"page" validate:"gte=1"`
	Limit     int       `json:"limit" validate:"gte=1"`
}

// HasText reports whether the filter carries a non-blank text query.
func (f *Filter) HasText() bool {
	return strings.TrimSpace(f.TextQuery) != ""
}

// Offset returns the number of matching records to skip.
func (f *Filter) Offset() int {
	return pagination.Offset(f.Page, f.Limit)
}

// RanksByRelevance reports whether results are ordered by text relevance.
// Relevance only applies when there is text to score against.
func (f *Filter) RanksByRelevance() bool {
	return f.SortBy == SortRelevance && f.HasText()
}

// EffectiveSort returns the field and order results are actually sorted by.
// Relevance without a text query falls back to newest first.
func (f *Filter) EffectiveSort() (SortField, SortOrder) {
	if f.SortBy == SortRelevance {
		if f.HasText() {
			return SortRelevance, SortDesc
		}
		return SortCreatedAt, SortDesc
	}
	return f.SortBy, f.SortOrder
}

// ParseFilter builds a Filter from raw query parameters. Facet parameters may
// repeat. Numeric bounds and flags that do not parse are dropped; malformed
// pagination or sort parameters fail with a *validator.ValidationError.
func ParseFilter(values url.Values) (*Filter, error) {
	f := &Filter{
		SortBy:    SortRelevance,
		SortOrder: SortDesc,
		Page:      pagination.DefaultPage,
		Limit:     pagination.DefaultLimit,
	}

	f.TextQuery = strings.TrimSpace(values.Get("q"))
	if f.TextQuery == "" {
		f.TextQuery = strings.TrimSpace(values.Get("query"))
	}

	f.Category = parseSet(values["category"])
	f.Brand = parseSet(values["brand"])
	f.Tags = parseSet(values["tags"])

	f.MinPrice = parseNumber(values.Get("minPrice"))
	f.MaxPrice = parseNumber(values.Get("maxPrice"))
	f.MinDiscount = parseNumber(values.Get("minDiscount"))
	f.MaxDiscount = parseNumber(values.Get("maxDiscount"))
	f.MinRating = parseNumber(values.Get("minRating"))
	f.MinViews = parseNumber(values.Get("minViews"))
	f.MinSold = parseNumber(values.Get("minSold"))

	f.IsBestSeller = parseBool(values.Get("isBestSeller"))
	f.IsNewProduct = parseBool(values.Get("isNewProduct"))

	if v := strings.TrimSpace(values.Get("sortBy")); v != "" {
		f.SortBy = SortField(v)
	}
	if v := strings.TrimSpace(values.Get("sortOrder")); v != "" {
		f.SortOrder = SortOrder(v)
	}

	extra := make(map[string]string)
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Page = n
		} else {
			extra["page"] = "must be a positive integer"
		}
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = min(n, pagination.MaxLimit)
		} else {
			extra["limit"] = "must be a positive integer"
		}
	}

	if _, bad := extra["page"]; !bad && f.Limit >= 1 && f.Page > pagination.MaxPage(f.Limit) {
		extra["page"] = "is too large"
	}

	err := validator.Validate(f)
	if len(extra) == 0 {
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		valErr = &validator.ValidationError{}
	}
	for field, msg := range extra {
		valErr.Add(field, msg)
	}
	return nil, valErr
}

// parseSet trims, drops blanks and de-duplicates repeated parameter values,
// keeping first-seen order.
func parseSet(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func parseBool(raw string) *bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
