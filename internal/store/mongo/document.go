package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// productDocument is the stored shape of a product. Field names match the
// domain field constants.
type productDocument struct {
	ObjectID     primitive.ObjectID `bson:"_id,omitempty"`
	ID           string             `bson:"id"`
	Name         string             `bson:"name"`
	Description  string             `bson:"description,omitempty"`
	Category     string             `bson:"category"`
	Brand        string             `bson:"brand,omitempty"`
	Tags         []string           `bson:"tags,omitempty"`
	Price        float64            `bson:"price"`
	OfferPrice   float64            `bson:"offerPrice,omitempty"`
	Discount     float64            `bson:"discount"`
	Rating       float64            `bson:"rating"`
	Views        int64              `bson:"views"`
	Sold         int64              `bson:"sold"`
	Stock        int64              `bson:"stock"`
	Image        string             `bson:"image,omitempty"`
	Images       []string           `bson:"images,omitempty"`
	IsBestSeller bool               `bson:"isBestSeller"`
	IsNewProduct bool               `bson:"isNewProduct"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
	Score        float64            `bson:"score,omitempty"`
}

func (d *productDocument) toDomain() domain.Product {
	id := d.ID
	if id == "" && !d.ObjectID.IsZero() {
		id = d.ObjectID.Hex()
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Product{
		ID:           id,
		Name:         d.Name,
		Description:  d.Description,
		Category:     d.Category,
		Brand:        d.Brand,
		Tags:         tags,
		Price:        d.Price,
		OfferPrice:   d.OfferPrice,
		Discount:     d.Discount,
		Rating:       d.Rating,
		Views:        d.Views,
		Sold:         d.Sold,
		Stock:        d.Stock,
		Image:        d.Image,
		Images:       d.Images,
		IsBestSeller: d.IsBestSeller,
		IsNewProduct: d.IsNewProduct,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Score:        d.Score,
	}
}

func newDocument(p *domain.Product) *productDocument {
	return &productDocument{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Brand:        p.Brand,
		Tags:         p.Tags,
		Price:        p.Price,
		OfferPrice:   p.OfferPrice,
		Discount:     p.Discount,
		Rating:       p.Rating,
		Views:        p.Views,
		Sold:         p.Sold,
		Stock:        p.Stock,
		Image:        p.Image,
		Images:       p.Images,
		IsBestSeller: p.IsBestSeller,
		IsNewProduct: p.IsNewProduct,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
