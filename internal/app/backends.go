package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/congquynguyen296/hq-shop/internal/config"
	"github.com/congquynguyen296/hq-shop/internal/index"
	esindex "github.com/congquynguyen296/hq-shop/internal/index/elasticsearch"
	indexmem "github.com/congquynguyen296/hq-shop/internal/index/memory"
	"github.com/congquynguyen296/hq-shop/internal/store"
	storemem "github.com/congquynguyen296/hq-shop/internal/store/memory"
	storemongo "github.com/congquynguyen296/hq-shop/internal/store/mongo"
	"github.com/congquynguyen296/hq-shop/pkg/database"
	"github.com/congquynguyen296/hq-shop/pkg/httpclient"
)

// slowQueryThreshold marks store queries worth a warning.
const slowQueryThreshold = 500 * time.Millisecond

// Closer releases a backend connection.
type Closer func(ctx context.Context) error

// OpenStore connects the product store selected by cfg.StoreEngine.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProductStore, Closer, error) {
	if cfg.StoreEngine == config.StoreMemory {
		logger.Warn("using in-memory product store, data is not persisted")
		return storemem.New(), func(context.Context) error { return nil }, nil
	}

	mongoCfg := cfg.Mongo()
	mongoCfg.PoolMonitor = database.RegisterPoolMetrics(ServiceName).Monitor()

	client, err := database.NewMongoClient(ctx, mongoCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}

	st := storemongo.New(client.Database(cfg.MongoDatabase), cfg.MongoCollection, logger,
		storemongo.WithSlowQueryThreshold(slowQueryThreshold))
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ensure mongodb indexes: %w", err)
	}

	logger.Info("mongodb product store initialized",
		slog.String("database", cfg.MongoDatabase),
		slog.String("collection", cfg.MongoCollection),
	)
	return st, client.Disconnect, nil
}

// OpenIndex builds the search index selected by cfg.IndexEngine. The returned
// raw index is the engine itself, for health checks; searches should go
// through the guarded one. An unreachable Elasticsearch does not fail
// startup since every search can fall back to the store.
func OpenIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (guarded, raw index.Index, err error) {
	switch cfg.IndexEngine {
	case config.IndexDisabled:
		logger.Warn("search index disabled, all searches are served by the store")
		return index.Disabled{}, nil, nil

	case config.IndexMemory:
		raw = indexmem.New()
		logger.Info("in-memory search index initialized")

	default:
		es, err := esindex.New(esindex.Config{
			URL:       cfg.ElasticsearchURL,
			IndexName: cfg.ElasticsearchIndex,
			Transport: httpclient.NewTransport(httpclient.DefaultConfig()),
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init elasticsearch index: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			logger.Warn("elasticsearch index not ready, searches will fall back to the store",
				slog.String("index", cfg.ElasticsearchIndex),
				slog.String("error", err.Error()),
			)
		}
		raw = es
		logger.Info("elasticsearch search index initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	}

	return index.NewGuarded(raw, cfg.Breaker(), logger), raw, nil
}
