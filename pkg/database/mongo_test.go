package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

func TestRetryBackoff_NegativeAttempt(t *testing.T) {
	d := retryBackoff(-1)
	assert.LessOrEqual(t, d, time.Duration(float64(defaultRetryBaseWait)*(1+retryJitterFraction)))
}

func TestDefaultMongoConfig(t *testing.T) {
	cfg := DefaultMongoConfig()
	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, "hq_shop", cfg.Database)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestNewMongoClient_CanceledDuringRetry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping: waits on server selection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cfg := DefaultMongoConfig()
	cfg.URI = "mongodb://127.0.0.1:1"
	cfg.ConnectTimeout = 100 * time.Millisecond

	_, err := NewMongoClient(ctx, cfg, nil)
	require.Error(t, err)
}
