package indexsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/index"
	indexmem "github.com/congquynguyen296/hq-shop/internal/index/memory"
	storemem "github.com/congquynguyen296/hq-shop/internal/store/memory"
	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func products(n int) []domain.Product {
	out := make([]domain.Product, 0, n)
	for i := range n {
		out = append(out, domain.Product{
			ID:       fmt.Sprintf("p%03d", i),
			Name:     fmt.Sprintf("Product %d", i),
			Category: "General",
		})
	}
	return out
}

// blockingIndex holds BulkIndex until release is closed.
type blockingIndex struct {
	index.Disabled
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingIndex) BulkIndex(context.Context, []domain.Product) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func TestRun_IndexesEveryProductInBatches(t *testing.T) {
	st := storemem.New(products(7)...)
	idx := indexmem.New()
	inv := &countingInvalidator{}
	job := NewJob(st, idx, testLogger(), WithBatchSize(3), WithInvalidator(inv))

	before := testutil.ToFloat64(documentsTotal)
	stats, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.Indexed)
	assert.Equal(t, 3, stats.Batches)
	assert.Equal(t, 7, idx.Len())
	assert.Equal(t, before+7, testutil.ToFloat64(documentsTotal))
	assert.Equal(t, 1, inv.calls)
	assert.False(t, job.Running())
}

func TestRun_ExactMultipleOfBatchSize(t *testing.T) {
	st := storemem.New(products(6)...)
	idx := indexmem.New()
	job := NewJob(st, idx, testLogger(), WithBatchSize(3))

	stats, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Indexed)
	assert.Equal(t, 2, stats.Batches)
}

func TestRun_EmptyStore(t *testing.T) {
	job := NewJob(storemem.New(), indexmem.New(), testLogger())

	stats, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Indexed)
	assert.Zero(t, stats.Batches)
}

func TestRun_StoreFailure(t *testing.T) {
	st := storemem.New(products(3)...)
	st.Err = errors.New("down")
	job := NewJob(st, indexmem.New(), testLogger())

	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.False(t, job.Running())
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	idx := &blockingIndex{entered: make(chan struct{}), release: make(chan struct{})}
	job := NewJob(storemem.New(products(2)...), idx, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := job.Run(context.Background())
		done <- err
	}()

	select {
	case <-idx.entered:
	case <-time.After(time.Second):
		t.Fatal("first run never reached the index")
	}
	assert.True(t, job.Running())

	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)

	close(idx.release)
	require.NoError(t, <-done)
}

func TestSyncProduct(t *testing.T) {
	st := storemem.New(products(2)...)
	idx := indexmem.New()
	job := NewJob(st, idx, testLogger())
	ctx := context.Background()

	require.NoError(t, job.SyncProduct(ctx, "p001"))
	assert.Equal(t, 1, idx.Len())

	st.Remove("p001")
	require.NoError(t, job.SyncProduct(ctx, "p001"))
	assert.Equal(t, 0, idx.Len())
}

func TestRemoveProduct(t *testing.T) {
	idx := indexmem.New()
	require.NoError(t, idx.BulkIndex(context.Background(), products(2)))
	inv := &countingInvalidator{}
	job := NewJob(storemem.New(), idx, testLogger(), WithInvalidator(inv))

	require.NoError(t, job.RemoveProduct(context.Background(), "p000"))
	require.NoError(t, job.RemoveProduct(context.Background(), "missing"))
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 2, inv.calls)
}

func TestRun_PrunesDocumentsMissingFromStore(t *testing.T) {
	st := storemem.New(products(3)...)
	idx := indexmem.New()
	require.NoError(t, idx.Index(context.Background(), &domain.Product{ID: "deleted-while-offline", Name: "Ghost"}))

	before := testutil.ToFloat64(prunedTotal)
	stats, err := NewJob(st, idx, testLogger(), WithBatchSize(2)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Indexed)
	assert.Equal(t, int64(1), stats.Pruned)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(prunedTotal))
}

// failingPruner indexes in memory but cannot prune.
type failingPruner struct {
	*indexmem.Engine
}

func (failingPruner) PruneIndexedBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("delete_by_query rejected")
}

func TestRun_PruneFailureFailsRun(t *testing.T) {
	idx := failingPruner{Engine: indexmem.New()}
	inv := &countingInvalidator{}

	stats, err := NewJob(storemem.New(products(2)...), idx, testLogger(), WithInvalidator(inv)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune stale documents")
	assert.Equal(t, int64(2), stats.Indexed)
	assert.Zero(t, inv.calls)
}

func TestRun_IndexWithoutPrunerKeepsDocuments(t *testing.T) {
	idx := &blockingIndex{entered: make(chan struct{}), release: make(chan struct{})}
	close(idx.release)

	stats, err := NewJob(storemem.New(products(1)...), idx, testLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Pruned)
}
