// Command indexsync copies every product from the store into the search
// index once and exits. It reads the same environment as the server.
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

	"github.com/congquynguyen296/hq-shop/internal/app"
	"github.com/congquynguyen296/hq-shop/internal/config"
	"github.com/congquynguyen296/hq-shop/internal/indexsync"
	"github.com/congquynguyen296/hq-shop/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	batchSize := flag.Int("batch-size", 0, "products per bulk request (defaults to INDEX_SYNC_BATCH_SIZE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IndexEngine != config.IndexElasticsearch {
		return errors.New("indexsync needs INDEX_ENGINE=elasticsearch")
	}
	if *batchSize > 0 {
		cfg.SyncBatchSize = *batchSize
	}

	log := logger.NewWithFormat("search-indexsync", cfg.LogLevel, cfg.LogFormat, os.Stdout)

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

	_, idx, err := app.OpenIndex(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := idx.Ping(ctx); err != nil {
		return fmt.Errorf("elasticsearch unreachable: %w", err)
	}

	stats, err := indexsync.NewJob(st, idx, log, indexsync.WithBatchSize(cfg.SyncBatchSize)).Run(ctx)
	if err != nil {
		return fmt.Errorf("index sync: %w", err)
	}

	log.Info("index sync complete",
		slog.Int64("indexed", stats.Indexed),
		slog.Int("batches", stats.Batches),
		slog.Duration("duration", stats.Duration),
	)
	return nil
}
