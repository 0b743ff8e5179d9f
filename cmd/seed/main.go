// Command seed fills the product store with a generated demo catalog and,
// unless -skip-index is set, syncs it into the search index.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/congquynguyen296/hq-shop/internal/app"
	"github.com/congquynguyen296/hq-shop/internal/config"
	"github.com/congquynguyen296/hq-shop/internal/indexsync"
	"github.com/congquynguyen296/hq-shop/internal/seed"
	"github.com/congquynguyen296/hq-shop/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	count := flag.Int("count", seed.DefaultCount, "number of products to generate")
	rngSeed := flag.Uint64("seed", 1, "random seed; the same seed yields the same catalog")
	skipIndex := flag.Bool("skip-index", false, "only write the store")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreEngine != config.StoreMongoDB {
		return errors.New("seed needs STORE_ENGINE=mongodb")
	}

	log := logger.NewWithFormat("search-seed", cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.Error("close store", slog.String("error", err.Error()))
		}
	}()

	w, ok := st.(seed.Writer)
	if !ok {
		return fmt.Errorf("store %T cannot be written to", st)
	}

	start := time.Now()
	products := seed.Generate(*count, *rngSeed, start.UTC())
	written, err := seed.Write(ctx, w, products, cfg.SyncBatchSize, log)
	if err != nil {
		return err
	}
	log.Info("catalog seeded",
		slog.Int("products", written),
		slog.Duration("duration", time.Since(start)),
	)

	if *skipIndex || cfg.IndexEngine != config.IndexElasticsearch {
		return nil
	}

	_, idx, err := app.OpenIndex(ctx, cfg, log)
	if err != nil {
		return err
	}
	stats, err := indexsync.NewJob(st, idx, log, indexsync.WithBatchSize(cfg.SyncBatchSize)).Run(ctx)
	if err != nil {
		return fmt.Errorf("index sync: %w", err)
	}
	log.Info("search index synced",
		slog.Int64("indexed", stats.Indexed),
		slog.Duration("duration", stats.Duration),
	)
	return nil
}
