// Package mongo implements the product store on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
	"github.com/congquynguyen296/hq-shop/pkg/database"
)

// DefaultCollection is the product collection name.
const DefaultCollection = "products"

// textIndexWeights mirror the index field boosts so both backends rank
// text matches by the same fields.
var textIndexWeights = bson.D{
	{Key: domain.FieldName, Value: 5},
	{Key: domain.FieldDescription, Value: 3},
	{Key: domain.FieldCategory, Value: 2},
	{Key: domain.FieldBrand, Value: 2},
	{Key: domain.FieldTags, Value: 1},
}

// Store is a MongoDB-backed store.ProductStore.
type Store struct {
	db      *mongo.Database
	coll    *mongo.Collection
	queries *database.QueryObserver
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	slowQuery time.Duration
}

// WithSlowQueryThreshold logs a warning for operations slower than d.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *storeOptions) { o.slowQuery = d }
}

// New creates a store over the given collection. If collection is empty,
// DefaultCollection is used.
func New(db *mongo.Database, collection string, logger *slog.Logger, opts ...Option) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		db:      db,
		coll:    db.Collection(collection),
		queries: database.NewQueryObserver(collection, o.slowQuery, logger),
		logger:  logger,
	}
}

// EnsureIndexes creates the text index and the indexes backing facet filters
// and sorts. Existing indexes with the same definition are left untouched.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: domain.FieldName, Value: "text"},
				{Key: domain.FieldDescription, Value: "text"},
				{Key: domain.FieldCategory, Value: "text"},
				{Key: domain.FieldBrand, Value: "text"},
				{Key: domain.FieldTags, Value: "text"},
			},
			Options: options.Index().SetName("product_text").SetWeights(textIndexWeights),
		},
		{
			Keys:    bson.D{{Key: domain.FieldID, Value: 1}},
			Options: options.Index().SetName("product_id").SetUnique(true),
		},
		{Keys: bson.D{{Key: domain.FieldCategory, Value: 1}}},
		{Keys: bson.D{{Key: domain.FieldBrand, Value: 1}}},
		{Keys: bson.D{{Key: domain.FieldPrice, Value: 1}}},
		{Keys: bson.D{{Key: domain.FieldCreatedAt, Value: -1}}},
	}

	names, err := s.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongodb ensure indexes: %w", err)
	}
	s.logger.Info("mongodb indexes ensured",
		slog.String("collection", s.coll.Name()),
		slog.Int("count", len(names)),
	)
	return nil
}

// Find runs q as an aggregation pipeline.
func (s *Store) Find(ctx context.Context, q *query.StoreQuery) (products []domain.Product, err error) {
	ctx, end := s.queries.Start(ctx, "aggregate")
	defer func() { end(err) }()

	cursor, err := s.coll.Aggregate(ctx, renderPipeline(q))
	if err != nil {
		return nil, classify(fmt.Errorf("mongodb find: %w", err))
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(fmt.Errorf("mongodb find: decode: %w", err))
	}

	products = make([]domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}
	return products, nil
}

// Count counts the records matching q, ignoring paging.
func (s *Store) Count(ctx context.Context, q *query.StoreQuery) (n int64, err error) {
	ctx, end := s.queries.Start(ctx, "countDocuments")
	defer func() { end(err) }()

	n, err = s.coll.CountDocuments(ctx, renderFilter(q))
	if err != nil {
		return 0, classify(fmt.Errorf("mongodb count: %w", err))
	}
	return n, nil
}

// Distinct returns the distinct non-empty string values of field, ascending.
func (s *Store) Distinct(ctx context.Context, field string) (values []string, err error) {
	ctx, end := s.queries.Start(ctx, "distinct")
	defer func() { end(err) }()

	raw, err := s.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, classify(fmt.Errorf("mongodb distinct %s: %w", field, err))
	}

	values = make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok && str != "" {
			values = append(values, str)
		}
	}
	sort.Strings(values)
	return values, nil
}

// GroupCount returns the most frequent non-empty values of field.
func (s *Store) GroupCount(ctx context.Context, field string, limit int) (counts []domain.ValueCount, err error) {
	ctx, end := s.queries.Start(ctx, "aggregate")
	defer func() { end(err) }()

	cursor, err := s.coll.Aggregate(ctx, groupCountPipeline(field, limit))
	if err != nil {
		return nil, classify(fmt.Errorf("mongodb group %s: %w", field, err))
	}
	defer func() { _ = cursor.Close(ctx) }()

	var rows []struct {
		Value string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, classify(fmt.Errorf("mongodb group %s: decode: %w", field, err))
	}

	counts = make([]domain.ValueCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, domain.ValueCount{Value: r.Value, Count: r.Count})
	}
	return counts, nil
}

// MinMax returns the bounds of a numeric field, {0, 0} when the collection
// is empty.
func (s *Store) MinMax(ctx context.Context, field string) (r domain.Range, err error) {
	ctx, end := s.queries.Start(ctx, "aggregate")
	defer func() { end(err) }()

	cursor, err := s.coll.Aggregate(ctx, minMaxPipeline(field))
	if err != nil {
		return domain.Range{}, classify(fmt.Errorf("mongodb min/max %s: %w", field, err))
	}
	defer func() { _ = cursor.Close(ctx) }()

	var rows []struct {
		Min *float64 `bson:"min"`
		Max *float64 `bson:"max"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.Range{}, classify(fmt.Errorf("mongodb min/max %s: decode: %w", field, err))
	}
	if len(rows) == 0 {
		return domain.Range{}, nil
	}
	if rows[0].Min != nil {
		r.Min = *rows[0].Min
	}
	if rows[0].Max != nil {
		r.Max = *rows[0].Max
	}
	return r, nil
}

// Ping checks whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return classify(fmt.Errorf("mongodb ping: %w", err))
	}
	return nil
}

// classify wraps a driver error as a store BackendError.
func classify(err error) error {
	reason := domain.ReasonQueryFailed
	switch {
	case errors.Is(err, context.Canceled):
		reason = domain.ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		reason = domain.ReasonTimeout
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		reason = domain.ReasonUnreachable
	}
	return domain.NewBackendError(domain.BackendStore, reason, err)
}
