package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Zero(t, store.Len())
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisIdempotencyStore(client, "search:events:", time.Hour)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	assert.True(t, mr.Exists("search:events:evt-1"))
	assert.Equal(t, time.Hour, mr.TTL("search:events:evt-1"))

	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.Close()
	_, err = store.Contains(ctx, "evt-1")
	assert.Error(t, err)
}

type failingIdempotencyStore struct{}

func (failingIdempotencyStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

func (failingIdempotencyStore) Add(context.Context, string) error {
	return errors.New("store down")
}

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate is skipped", func(t *testing.T) {
		calls := 0
		h := IdempotentHandler(NewMemoryIdempotencyStore(time.Minute), func(context.Context, *Event) error {
			calls++
			return nil
		}, testLogger())

		require.NoError(t, h(ctx, testEvent("evt-1")))
		require.NoError(t, h(ctx, testEvent("evt-1")))
		require.NoError(t, h(ctx, testEvent("evt-2")))
		assert.Equal(t, 2, calls)
	})

	t.Run("failure is not recorded", func(t *testing.T) {
		store := NewMemoryIdempotencyStore(time.Minute)
		fail := true
		h := IdempotentHandler(store, func(context.Context, *Event) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		}, testLogger())

		assert.Error(t, h(ctx, testEvent("evt-1")))
		fail = false
		require.NoError(t, h(ctx, testEvent("evt-1")))
		assert.Equal(t, 1, store.Len())
	})

	t.Run("missing event id passes through", func(t *testing.T) {
		calls := 0
		h := IdempotentHandler(NewMemoryIdempotencyStore(time.Minute), func(context.Context, *Event) error {
			calls++
			return nil
		}, testLogger())

		require.NoError(t, h(ctx, testEvent("")))
		require.NoError(t, h(ctx, testEvent("")))
		assert.Equal(t, 2, calls)
	})

	t.Run("store failure processes anyway", func(t *testing.T) {
		calls := 0
		h := IdempotentHandler(failingIdempotencyStore{}, func(context.Context, *Event) error {
			calls++
			return nil
		}, testLogger())

		require.NoError(t, h(ctx, testEvent("evt-1")))
		assert.Equal(t, 1, calls)
	})
}
