package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congquynguyen296/hq-shop/internal/config"
	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/index"
	"github.com/congquynguyen296/hq-shop/pkg/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig(t *testing.T, indexEngine string) *config.Config {
	t.Helper()
	t.Setenv("STORE_ENGINE", config.StoreMemory)
	t.Setenv("INDEX_ENGINE", indexEngine)
	t.Setenv("ADMIN_TOKEN", "secret")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewApp_MemoryBackends(t *testing.T) {
	a, err := NewApp(context.Background(), memoryConfig(t, config.IndexMemory), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })

	assert.NotNil(t, a.scheduler)
	assert.Nil(t, a.consumer)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusUp, resp.Status)
	assert.Contains(t, resp.Checks, config.StoreMemory)
	assert.Contains(t, resp.Checks, config.IndexMemory)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=anything", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"index"`)
}

func TestNewApp_IndexDisabled(t *testing.T) {
	a, err := NewApp(context.Background(), memoryConfig(t, config.IndexDisabled), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })

	assert.Nil(t, a.scheduler)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=anything", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"store"`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	cfg := memoryConfig(t, config.IndexMemory)
	cfg.RedisEnabled = true
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = 1

	_, err := NewApp(context.Background(), cfg, testLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := memoryConfig(t, config.IndexMemory)
	cfg.HTTPPort = 18010

	a, err := NewApp(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}

func TestOpenIndex_Memory(t *testing.T) {
	cfg := memoryConfig(t, config.IndexMemory)

	guarded, raw, err := OpenIndex(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, raw)

	g, ok := guarded.(*index.Guarded)
	require.True(t, ok, "searches go through the circuit breaker")
	assert.Equal(t, gobreaker.StateClosed, g.State())

	p := &domain.Product{ID: "p1", Name: "Trail Shoe", Category: "shoes"}
	require.NoError(t, guarded.Index(context.Background(), p))
	require.NoError(t, guarded.Ping(context.Background()))
	require.NoError(t, guarded.Delete(context.Background(), "p1"))
}

func TestOpenIndex_Disabled(t *testing.T) {
	guarded, raw, err := OpenIndex(context.Background(), memoryConfig(t, config.IndexDisabled), testLogger())
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.IsType(t, index.Disabled{}, guarded)
}
