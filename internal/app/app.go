package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/congquynguyen296/hq-shop/internal/cache"
	"github.com/congquynguyen296/hq-shop/internal/config"
	"github.com/congquynguyen296/hq-shop/internal/event"
	handler "github.com/congquynguyen296/hq-shop/internal/handler/http"
	"github.com/congquynguyen296/hq-shop/internal/indexsync"
	"github.com/congquynguyen296/hq-shop/internal/service"
	"github.com/congquynguyen296/hq-shop/pkg/database"
	"github.com/congquynguyen296/hq-shop/pkg/health"
	pkgkafka "github.com/congquynguyen296/hq-shop/pkg/kafka"
	"github.com/congquynguyen296/hq-shop/pkg/tracing"
)

// ServiceName identifies the service in logs, metrics and traces.
const ServiceName = handler.ServiceName

// Version is stamped at build time with -ldflags.
var Version = "dev"

const (
	cachePrefix       = "search-service:agg:"
	idempotencyPrefix = "search-service:events:"
	idempotencyTTL    = 24 * time.Hour
	shutdownTimeout   = 10 * time.Second
)

// App wires together all dependencies and runs the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	scheduler  *indexsync.Scheduler
	consumer   *pkgkafka.Consumer
	dlq        *pkgkafka.DLQProducer
	closers    []namedCloser
}

type namedCloser struct {
	name  string
	close Closer
}

// NewApp creates a new application instance, connecting every configured
// backend. Connections opened before a failure are closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	tracer, err := tracing.Setup(ctx, cfg.Tracing(ServiceName, Version))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.addCloser("tracer", tracer.Shutdown)

	st, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.addCloser("store", closeStore)

	idx, rawIdx, err := OpenIndex(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical(cfg.StoreEngine, st.Ping)
	if rawIdx != nil {
		healthHandler.RegisterNonCritical(cfg.IndexEngine, rawIdx.Ping)
	}

	// Aggregate cache and event dedupe share one Redis client.
	var (
		redisClient *redis.Client
		aggCache    *cache.RedisCache
	)
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.addCloser("redis", func(context.Context) error { return redisClient.Close() })
		aggCache = cache.NewRedisCache(redisClient, cachePrefix)
		healthHandler.RegisterNonCritical("redis", aggCache.Ping)
		logger.Info("redis aggregate cache initialized",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Duration("ttl", cfg.CacheTTL),
		)
	}

	searchService := service.NewSearchService(idx, st, cfg.IndexTimeout, logger)
	suggestService := service.NewSuggestService(st, logger)
	var facetCache service.Cache
	if aggCache != nil {
		facetCache = aggCache
	}
	facetService := service.NewFacetService(st, facetCache, cfg.CacheTTL, logger)

	// Index sync is pointless without an index to write to.
	var reindexer handler.Reindexer
	if rawIdx != nil {
		opts := []indexsync.Option{indexsync.WithBatchSize(cfg.SyncBatchSize)}
		if aggCache != nil {
			opts = append(opts, indexsync.WithInvalidator(aggCache))
		}
		job := indexsync.NewJob(st, rawIdx, logger, opts...)
		reindexer = job

		if cfg.SyncSchedule != "" {
			a.scheduler = indexsync.NewScheduler(job, cfg.SyncSchedule, cfg.SyncOnStartup, logger)
		}

		if cfg.KafkaEnabled {
			a.consumer = a.newEventConsumer(job, redisClient)
			healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
				return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
			})
		}
	} else if cfg.KafkaEnabled {
		logger.Warn("kafka enabled but the search index is disabled, product events are ignored")
	}

	searchHandler := handler.NewSearchHandler(searchService, suggestService, facetService, reindexer, logger)
	router := handler.NewRouter(searchHandler, healthHandler, handler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:     cfg.AdminToken,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)
	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is not set, the reindex endpoint is unauthenticated")
	}

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// newEventConsumer builds the product event consumer. Redeliveries are
// deduplicated in Redis when it is configured, in memory otherwise.
func (a *App) newEventConsumer(job *indexsync.Job, redisClient *redis.Client) *pkgkafka.Consumer {
	var dedupe pkgkafka.IdempotencyStore
	if redisClient != nil {
		dedupe = pkgkafka.NewRedisIdempotencyStore(redisClient, idempotencyPrefix, idempotencyTTL)
	} else {
		dedupe = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	}

	products := event.NewConsumer(job, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)

	consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  a.cfg.KafkaBrokers,
		GroupID:  a.cfg.KafkaGroupID,
		Topics:   event.Topics(),
		MinBytes: 1,
		MaxBytes: 10e6, // 10 MB
	}, pkgkafka.IdempotentHandler(dedupe, products.Handle, a.logger), a.logger, pkgkafka.WithDLQ(a.dlq))

	a.logger.Info("kafka product event consumer initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.String("group_id", a.cfg.KafkaGroupID),
		slog.Any("topics", event.Topics()),
	)
	return consumer
}

func (a *App) addCloser(name string, fn Closer) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Handler returns the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server, the index sync scheduler and the event
// consumer, blocking until ctx is canceled or the server fails. A consumer
// failure is logged and does not stop the server.
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.consumer != nil {
		g.Go(func() error {
			a.logger.Info("starting kafka consumer")
			if err := a.consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info("http server listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.scheduler != nil {
		a.scheduler.Stop(shutdownCtx)
	}

	errs = append(errs, a.close(shutdownCtx))

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// close stops the consumer and releases backend connections in reverse
// order of opening.
func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			a.logger.Error("close error", slog.String("component", c.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
