// Package indexsync keeps the search index in step with the product store:
// full rebuilds on a schedule or on demand, and single-product updates driven
// by catalog events.
package indexsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/congquynguyen296/hq-shop/internal/index"
	"github.com/congquynguyen296/hq-shop/internal/query"
	"github.com/congquynguyen296/hq-shop/internal/store"
	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
)

// DefaultBatchSize is the number of products indexed per bulk request.
const DefaultBatchSize = 500

// ErrSyncInProgress is returned when a full sync is requested while one is
// already running.
var ErrSyncInProgress = apperrors.Conflict("index sync already in progress")

var (
	documentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "index_sync_documents_total",
		Help: "Total number of product documents written to the search index",
	})

	prunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "index_sync_pruned_total",
		Help: "Total number of stale documents removed from the search index by full syncs",
	})

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_sync_runs_total",
			Help: "Total number of full index syncs by outcome",
		},
		[]string{"outcome"},
	)
)

// Invalidator drops derived data that a catalog change makes stale.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Stats summarizes a full sync.
type Stats struct {
	Indexed  int64         `json:"indexed"`
	Batches  int           `json:"batches"`
	Pruned   int64         `json:"pruned"`
	Duration time.Duration `json:"duration"`
}

// Job copies products from the store into the index.
type Job struct {
	store       store.ProductStore
	index       index.Index
	batchSize   int
	invalidator Invalidator
	logger      *slog.Logger

	running atomic.Bool
}

// Option configures a Job.
type Option func(*Job)

// WithBatchSize sets the bulk request size.
func WithBatchSize(n int) Option {
	return func(j *Job) {
		if n > 0 {
			j.batchSize = n
		}
	}
}

// WithInvalidator registers a cache to clear after the catalog changes.
func WithInvalidator(inv Invalidator) Option {
	return func(j *Job) { j.invalidator = inv }
}

// NewJob creates a sync job.
func NewJob(st store.ProductStore, idx index.Index, logger *slog.Logger, opts ...Option) *Job {
	j := &Job{
		store:     st,
		index:     idx,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Running reports whether a full sync is in progress.
func (j *Job) Running() bool {
	return j.running.Load()
}

// Run pages through the whole store in id order and bulk-indexes every page.
// When the index is an index.Pruner, documents not rewritten since the run
// began are then deleted. Only one Run executes at a time; a concurrent call
// gets ErrSyncInProgress.
func (j *Job) Run(ctx context.Context) (Stats, error) {
	if !j.running.CompareAndSwap(false, true) {
		return Stats{}, ErrSyncInProgress
	}
	defer j.running.Store(false)

	start := time.Now()
	j.logger.InfoContext(ctx, "index sync started", slog.Int("batch_size", j.batchSize))

	stats, err := j.run(ctx)
	if err == nil {
		stats.Pruned, err = j.prune(ctx, start)
	}
	stats.Duration = time.Since(start)
	if err != nil {
		runsTotal.WithLabelValues("failed").Inc()
		j.logger.ErrorContext(ctx, "index sync failed",
			slog.Int64("indexed", stats.Indexed),
			slog.String("error", err.Error()),
		)
		return stats, err
	}

	runsTotal.WithLabelValues("completed").Inc()
	j.invalidate(ctx)
	j.logger.InfoContext(ctx, "index sync completed",
		slog.Int64("indexed", stats.Indexed),
		slog.Int("batches", stats.Batches),
		slog.Int64("pruned", stats.Pruned),
		slog.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (j *Job) run(ctx context.Context) (Stats, error) {
	var stats Stats
	for skip := int64(0); ; skip += int64(j.batchSize) {
		batch, err := j.store.Find(ctx, query.CompileScan(skip, int64(j.batchSize)))
		if err != nil {
			return stats, fmt.Errorf("read batch at %d: %w", skip, err)
		}
		if len(batch) == 0 {
			return stats, nil
		}

		if err := j.index.BulkIndex(ctx, batch); err != nil {
			return stats, fmt.Errorf("index batch at %d: %w", skip, err)
		}
		stats.Batches++
		stats.Indexed += int64(len(batch))
		documentsTotal.Add(float64(len(batch)))

		if len(batch) < j.batchSize {
			return stats, nil
		}
	}
}

// prune deletes documents last written before the run started. Products
// indexed by events during the run carry a later stamp and are kept.
func (j *Job) prune(ctx context.Context, cutoff time.Time) (int64, error) {
	pruner, ok := j.index.(index.Pruner)
	if !ok {
		return 0, nil
	}
	n, err := pruner.PruneIndexedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune stale documents: %w", err)
	}
	prunedTotal.Add(float64(n))
	return n, nil
}

// SyncProduct re-projects one product into the index. A product the store
// no longer has is removed from the index.
func (j *Job) SyncProduct(ctx context.Context, id string) error {
	found, err := j.store.Find(ctx, query.CompileByID(id))
	if err != nil {
		return fmt.Errorf("load product %s: %w", id, err)
	}
	if len(found) == 0 {
		return j.RemoveProduct(ctx, id)
	}

	if err := j.index.Index(ctx, &found[0]); err != nil {
		return fmt.Errorf("index product %s: %w", id, err)
	}
	documentsTotal.Inc()
	j.invalidate(ctx)
	return nil
}

// RemoveProduct deletes one product document from the index.
func (j *Job) RemoveProduct(ctx context.Context, id string) error {
	if err := j.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	j.invalidate(ctx)
	return nil
}

func (j *Job) invalidate(ctx context.Context) {
	if j.invalidator == nil {
		return
	}
	if err := j.invalidator.Invalidate(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.logger.WarnContext(ctx, "cache invalidation failed", slog.String("error", err.Error()))
	}
}
