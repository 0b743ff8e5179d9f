// Command server runs the catalog search HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/congquynguyen296/hq-shop/internal/app"
	"github.com/congquynguyen296/hq-shop/internal/config"
	"github.com/congquynguyen296/hq-shop/pkg/logger"
)

func main() {
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(app.ServiceName, app.Version)
		return
	}

	if err := run(); err != nil {
		slog.Error("search service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithFormat(app.ServiceName, cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)
	log.Info("starting search service",
		slog.String("environment", cfg.Environment),
		slog.String("version", app.Version),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("store", cfg.StoreEngine),
		slog.String("index", cfg.IndexEngine),
		slog.Bool("cache", cfg.RedisEnabled),
		slog.Bool("events", cfg.KafkaEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("search service stopped")
	return nil
}
