package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// Upsert replaces products by id, inserting the ones that do not exist yet.
// It is used by catalog seeding; the search path never writes.
func (s *Store) Upsert(ctx context.Context, products []domain.Product) (err error) {
	if len(products) == 0 {
		return nil
	}
	ctx, end := s.queries.Start(ctx, "bulkWrite")
	defer func() { end(err) }()

	models := make([]mongo.WriteModel, 0, len(products))
	for i := range products {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: domain.FieldID, Value: products[i].ID}}).
			SetReplacement(newDocument(&products[i])).
			SetUpsert(true))
	}

	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return classify(fmt.Errorf("mongodb upsert: %w", err))
	}
	return nil
}
