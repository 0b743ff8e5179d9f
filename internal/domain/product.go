package domain

import "time"

// Product is the catalog record as served to clients. The same projection is
// stored in the search index; the document store remains the source of truth.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand,omitempty"`
	Tags         []string  `json:"tags"`
	Price        float64   `json:"price"`
	OfferPrice   float64   `json:"offerPrice,omitempty"`
	Discount     float64   `json:"discount"`
	Rating       float64   `json:"rating"`
	Views        int64     `json:"views"`
	Sold         int64     `json:"sold"`
	Stock        int64     `json:"stock"`
	Image        string    `json:"image,omitempty"`
	Images       []string  `json:"images,omitempty"`
	IsBestSeller bool      `json:"isBestSeller"`
	IsNewProduct bool      `json:"isNewProduct"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Score is the backend-native relevance of a text match. Values from the
	// index and the store are not comparable.
	Score float64 `json:"score,omitempty"`
}

// Product field names shared by both backends. Store documents and index
// documents use the same names.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldDescription  = "description"
	FieldCategory     = "category"
	FieldBrand        = "brand"
	FieldTags         = "tags"
	FieldPrice        = "price"
	FieldOfferPrice   = "offerPrice"
	FieldDiscount     = "discount"
	FieldRating       = "rating"
	FieldViews        = "views"
	FieldSold         = "sold"
	FieldIsBestSeller = "isBestSeller"
	FieldIsNewProduct = "isNewProduct"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
	FieldScore        = "score"
)
