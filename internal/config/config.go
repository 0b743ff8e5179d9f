package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/congquynguyen296/hq-shop/pkg/breaker"
	pkgconfig "github.com/congquynguyen296/hq-shop/pkg/config"
	"github.com/congquynguyen296/hq-shop/pkg/database"
	"github.com/congquynguyen296/hq-shop/pkg/logger"
	"github.com/congquynguyen296/hq-shop/pkg/tracing"
)

// Store engines.
const (
	StoreMongoDB = "mongodb"
	StoreMemory  = "memory"
)

// Index engines.
const (
	IndexElasticsearch = "elasticsearch"
	IndexMemory        = "memory"
	IndexDisabled      = "disabled"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort           int           `env:"SEARCH_HTTP_PORT" envDefault:"8010"`
	RequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	AdminToken         string        `env:"ADMIN_TOKEN"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"100"`

	// Store
	StoreEngine      string `env:"STORE_ENGINE" envDefault:"mongodb"`
	MongoURI         string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase    string `env:"MONGODB_DATABASE" envDefault:"hq_shop"`
	MongoCollection  string `env:"MONGODB_COLLECTION" envDefault:"products"`
	MongoMaxPoolSize uint64 `env:"MONGODB_MAX_POOL_SIZE" envDefault:"50"`

	// Index
	IndexEngine         string        `env:"INDEX_ENGINE" envDefault:"elasticsearch"`
	ElasticsearchURL    string        `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex  string        `env:"ELASTICSEARCH_INDEX" envDefault:"products"`
	IndexTimeout        time.Duration `env:"INDEX_TIMEOUT" envDefault:"2s"`
	BreakerFailureRatio float64       `env:"INDEX_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"INDEX_BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerOpenTimeout  time.Duration `env:"INDEX_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Redis aggregate cache
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Kafka product events
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"search-service"`

	// Index sync
	SyncSchedule  string `env:"INDEX_SYNC_SCHEDULE" envDefault:"@every 30m"`
	SyncBatchSize int    `env:"INDEX_SYNC_BATCH_SIZE" envDefault:"500"`
	SyncOnStartup bool   `env:"INDEX_SYNC_ON_STARTUP" envDefault:"false"`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("HTTP_REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set")
	}
	if c.LogFormat != logger.FormatJSON && c.LogFormat != logger.FormatText {
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}

	switch c.StoreEngine {
	case StoreMongoDB:
		if c.MongoURI == "" || c.MongoDatabase == "" || c.MongoCollection == "" {
			return errors.New("MONGODB_URI, MONGODB_DATABASE and MONGODB_COLLECTION are required for the mongodb store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_ENGINE %q: want mongodb or memory", c.StoreEngine)
	}

	switch c.IndexEngine {
	case IndexElasticsearch:
		if c.ElasticsearchURL == "" || c.ElasticsearchIndex == "" {
			return errors.New("ELASTICSEARCH_URL and ELASTICSEARCH_INDEX are required for the elasticsearch index")
		}
	case IndexMemory, IndexDisabled:
	default:
		return fmt.Errorf("invalid INDEX_ENGINE %q: want elasticsearch, memory or disabled", c.IndexEngine)
	}

	// The index attempt must leave room for the store fallback.
	if c.IndexTimeout <= 0 || c.IndexTimeout >= c.RequestTimeout {
		return fmt.Errorf("INDEX_TIMEOUT must be positive and below HTTP_REQUEST_TIMEOUT, got %s", c.IndexTimeout)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("INDEX_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.BreakerFailureRatio)
	}

	if c.RedisEnabled && c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive when redis is enabled")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when kafka is enabled")
	}

	if c.SyncBatchSize < 1 {
		return fmt.Errorf("INDEX_SYNC_BATCH_SIZE must be positive, got %d", c.SyncBatchSize)
	}
	if c.SyncSchedule != "" {
		if _, err := cron.ParseStandard(c.SyncSchedule); err != nil {
			return fmt.Errorf("invalid INDEX_SYNC_SCHEDULE %q: %w", c.SyncSchedule, err)
		}
	}

	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be in [0, 1], got %v", c.TracingSampleRate)
	}
	return nil
}

// Mongo returns the MongoDB client settings.
func (c *Config) Mongo() database.MongoConfig {
	mc := database.DefaultMongoConfig()
	mc.URI = c.MongoURI
	mc.Database = c.MongoDatabase
	if c.MongoMaxPoolSize > 0 {
		mc.MaxPoolSize = c.MongoMaxPoolSize
	}
	return mc
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Breaker returns the circuit breaker settings guarding the index.
func (c *Config) Breaker() breaker.Config {
	bc := breaker.DefaultConfig("search-index")
	bc.FailureRatio = c.BreakerFailureRatio
	bc.MinRequests = c.BreakerMinRequests
	bc.Timeout = c.BreakerOpenTimeout
	return bc
}

// Tracing returns the OpenTelemetry exporter settings.
func (c *Config) Tracing(serviceName, version string) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTLPEndpoint,
		SampleRate:     c.TracingSampleRate,
		Enabled:        c.TracingEnabled,
	}
}
