package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, StoreMongoDB, cfg.StoreEngine)
	assert.Equal(t, "hq_shop", cfg.MongoDatabase)
	assert.Equal(t, "products", cfg.MongoCollection)
	assert.Equal(t, IndexElasticsearch, cfg.IndexEngine)
	assert.Equal(t, "products", cfg.ElasticsearchIndex)
	assert.Equal(t, 2*time.Second, cfg.IndexTimeout)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "search-service", cfg.KafkaGroupID)
	assert.Equal(t, "@every 30m", cfg.SyncSchedule)
	assert.Equal(t, 500, cfg.SyncBatchSize)
	assert.False(t, cfg.TracingEnabled)
	assert.Empty(t, cfg.AdminToken)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 50.0, cfg.RateLimitRPS)
	assert.Equal(t, 100, cfg.RateLimitBurst)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_ENGINE", "memory")
	t.Setenv("INDEX_ENGINE", "disabled")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com,https://admin.example.com")
	t.Setenv("INDEX_TIMEOUT", "500ms")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreEngine)
	assert.Equal(t, IndexDisabled, cfg.IndexEngine)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
	assert.Equal(t, 500*time.Millisecond, cfg.IndexTimeout)
	assert.Equal(t, "localhost:6380", cfg.Redis().Addr())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port zero", map[string]string{"SEARCH_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"rate limit burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
		{"log format", map[string]string{"LOG_FORMAT": "xml"}, "invalid LOG_FORMAT"},
		{"port too high", map[string]string{"SEARCH_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"unknown store", map[string]string{"STORE_ENGINE": "postgres"}, "invalid STORE_ENGINE"},
		{"unknown index", map[string]string{"INDEX_ENGINE": "solr"}, "invalid INDEX_ENGINE"},
		{"index timeout above request timeout", map[string]string{"INDEX_TIMEOUT": "45s"}, "INDEX_TIMEOUT"},
		{"breaker ratio", map[string]string{"INDEX_BREAKER_FAILURE_RATIO": "1.5"}, "INDEX_BREAKER_FAILURE_RATIO"},
		{"batch size", map[string]string{"INDEX_SYNC_BATCH_SIZE": "0"}, "INDEX_SYNC_BATCH_SIZE"},
		{"schedule", map[string]string{"INDEX_SYNC_SCHEDULE": "every now and then"}, "INDEX_SYNC_SCHEDULE"},
		{"sample rate", map[string]string{"TRACING_SAMPLE_RATE": "2"}, "TRACING_SAMPLE_RATE"},
		{"redis ttl", map[string]string{"REDIS_ENABLED": "true", "CACHE_TTL": "-1s"}, "CACHE_TTL"},
		{"bad duration", map[string]string{"INDEX_TIMEOUT": "soon"}, "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	mongo := cfg.Mongo()
	assert.Equal(t, "mongodb://localhost:27017", mongo.URI)
	assert.Equal(t, uint64(50), mongo.MaxPoolSize)

	br := cfg.Breaker()
	assert.Equal(t, "search-index", br.Name)
	assert.Equal(t, 0.5, br.FailureRatio)
	assert.Equal(t, uint32(5), br.MinRequests)
	assert.Equal(t, 30*time.Second, br.Timeout)

	tr := cfg.Tracing("search-service", "dev")
	assert.Equal(t, "search-service", tr.ServiceName)
	assert.Equal(t, "localhost:4318", tr.OTLPEndpoint)
	assert.Equal(t, 1.0, tr.SampleRate)
}
