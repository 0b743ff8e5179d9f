package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// OpTimeout bounds every read and write. Cache lookups sit on the request
	// path, so a slow Redis must fail fast rather than stall a search.
	OpTimeout time.Duration
	PoolSize  int
}

// DefaultRedisConfig returns defaults for a local Redis used as a cache.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:      "localhost",
		Port:      6379,
		OpTimeout: 200 * time.Millisecond,
		PoolSize:  20,
	}
}

// Addr returns the host:port address.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewRedisClient creates a Redis client and verifies the connection. The
// client is closed again when the ping fails.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultRedisConfig().OpTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Second,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
		PoolSize:     cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}
