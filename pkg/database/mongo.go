package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64

	// PoolMonitor, when set, receives connection pool events.
	PoolMonitor *event.PoolMonitor
}

// DefaultMongoConfig returns sensible defaults for a MongoDB client.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "hq_shop",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    50,
		MinPoolSize:    5,
	}
}

const (
	defaultRetryAttempts = 3
	defaultRetryBaseWait = 1 * time.Second
	retryJitterFraction  = 0.25
)

// retryBackoff returns the backoff duration for the given attempt (0-indexed)
// with ±25% jitter. Base delays: 1s, 2s, 4s.
func retryBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := defaultRetryBaseWait << attempt
	jitter := time.Duration(float64(base) * retryJitterFraction * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
	return base + jitter
}

// NewMongoClient connects to MongoDB and verifies the primary is reachable,
// retrying startup failures (3 attempts, 1s/2s/4s backoff with ±25% jitter).
// logger may be nil.
func NewMongoClient(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.PoolMonitor != nil {
		opts.SetPoolMonitor(cfg.PoolMonitor)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		if lastErr = client.Ping(ctx, readpref.Primary()); lastErr == nil {
			return client, nil
		}
		if attempt == defaultRetryAttempts-1 {
			break
		}

		wait := retryBackoff(attempt)
		if logger != nil {
			logger.Warn("mongodb ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", defaultRetryAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
		}
		select {
		case <-ctx.Done():
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ping mongodb: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	_ = client.Disconnect(context.Background())
	return nil, fmt.Errorf("connect to mongodb after %d attempts: %w", defaultRetryAttempts, lastErr)
}
