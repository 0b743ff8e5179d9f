// Package seed generates a deterministic demo catalog for local runs and
// load tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/pkg/slug"
)

// DefaultCount is the catalog size generated when none is given.
const DefaultCount = 10000

// DefaultBatchSize is the number of products written per Upsert call.
const DefaultBatchSize = 500

// productNamespace derives stable product ids, so re-seeding replaces the
// same records instead of duplicating them.
var productNamespace = uuid.MustParse("6f1c3c52-8d0e-4f43-9a5e-5b7e0f2a1c11")

type category struct {
	name   string
	weight float64
	types  []string
	tags   []string
}

var categories = []category{
	{"Phones", 0.15, []string{"Smartphone", "Phone", "Flip Phone"}, []string{"5g", "dual-sim", "android"}},
	{"Laptops", 0.10, []string{"Laptop", "Ultrabook", "Gaming Laptop"}, []string{"work", "gaming", "portable"}},
	{"Audio", 0.10, []string{"Headphones", "Earbuds", "Speaker"}, []string{"wireless", "bluetooth", "noise-cancelling"}},
	{"Fashion", 0.25, []string{"Dress", "Jacket", "Shirt", "Trousers", "Sneakers"}, []string{"cotton", "summer", "winter"}},
	{"Home", 0.15, []string{"Desk Lamp", "Blender", "Coffee Maker", "Kettle"}, []string{"kitchen", "smart-home", "eco"}},
	{"Beauty", 0.10, []string{"Lipstick", "Serum", "Sunscreen"}, []string{"vegan", "spf", "organic"}},
	{"Sports", 0.15, []string{"Yoga Mat", "Running Shoes", "Dumbbell Set"}, []string{"fitness", "outdoor", "running"}},
}

var brands = []string{
	"Acme", "Globex", "Initech", "Umbrella", "Stark",
	"Wayne", "Hooli", "Vandelay", "Soylent", "Tyrell",
}

var prefixes = []string{
	"Classic", "Pro", "Lite", "Max", "Ultra",
	"Essential", "Premium", "Compact", "Urban", "Everyday",
}

var colors = []string{
	"Black", "Navy", "Ivory", "Pink", "Grey",
	"Olive", "Burgundy", "Blue", "Beige", "Red",
}

var descriptions = []string{
	"A reliable %s built for everyday use.",
	"This %s balances comfort and performance.",
	"Our best-rated %s, refreshed for this season.",
	"A lightweight %s that is easy to carry and easy to love.",
}

// Generate returns count products. The same seed always yields the same
// catalog, relative to now.
func Generate(count int, seed uint64, now time.Time) []domain.Product {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	products := make([]domain.Product, 0, count)

	remaining := count
	for ci, cat := range categories {
		n := int(float64(count) * cat.weight)
		if ci == len(categories)-1 {
			n = remaining
		}
		remaining -= n

		for range n {
			products = append(products, generate(rng, cat, len(products), now))
		}
	}
	return products
}

func generate(rng *rand.Rand, cat category, i int, now time.Time) domain.Product {
	productType := cat.types[rng.IntN(len(cat.types))]
	name := fmt.Sprintf("%s %s - %s", prefixes[rng.IntN(len(prefixes))], productType, colors[rng.IntN(len(colors))])

	// Every tenth product is unbranded.
	brand := ""
	if i%10 != 0 {
		brand = brands[i%len(brands)]
	}

	price := math.Round((9.9+rng.Float64()*2000)*100) / 100
	var discount float64
	if rng.IntN(3) == 0 {
		discount = float64(5 * (1 + rng.IntN(10)))
	}
	offer := 0.0
	if discount > 0 {
		offer = math.Round(price*(100-discount)) / 100
	}

	createdAt := now.Add(-time.Duration(rng.IntN(90*24*60)) * time.Minute)
	sold := int64(rng.IntN(5000))
	imageSlug := fmt.Sprintf("%s-%d", slug.Generate(name), i)

	return domain.Product{
		ID:           uuid.NewSHA1(productNamespace, fmt.Appendf(nil, "product-%d", i)).String(),
		Name:         name,
		Description:  fmt.Sprintf(descriptions[rng.IntN(len(descriptions))], productType),
		Category:     cat.name,
		Brand:        brand,
		Tags:         pickTags(rng, cat.tags),
		Price:        price,
		OfferPrice:   offer,
		Discount:     discount,
		Rating:       math.Round((1+rng.Float64()*4)*10) / 10,
		Views:        sold*int64(2+rng.IntN(20)) + int64(rng.IntN(1000)),
		Sold:         sold,
		Stock:        int64(rng.IntN(500)),
		Image:        "/images/products/" + imageSlug + ".jpg",
		IsBestSeller: sold > 4000,
		IsNewProduct: now.Sub(createdAt) < 14*24*time.Hour,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func pickTags(rng *rand.Rand, pool []string) []string {
	tags := make([]string, 0, len(pool))
	for _, t := range pool {
		if rng.IntN(2) == 0 {
			tags = append(tags, t)
		}
	}
	return tags
}

// Writer persists products, replacing existing ones by id.
type Writer interface {
	Upsert(ctx context.Context, products []domain.Product) error
}

// Write upserts products in batches of batchSize and returns how many were
// written.
func Write(ctx context.Context, w Writer, products []domain.Product, batchSize int, logger *slog.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	written := 0
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		if err := w.Upsert(ctx, products[start:end]); err != nil {
			return written, fmt.Errorf("seed batch at %d: %w", start, err)
		}
		written = end
		logger.Debug("seed batch written", slog.Int("written", written), slog.Int("total", len(products)))
	}
	return written, nil
}
