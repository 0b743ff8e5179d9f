package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/congquynguyen296/hq-shop/pkg/database"

var queryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of document store operations.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"collection", "operation", "outcome"},
)

// QueryObserver traces and times operations on one collection, warning about
// slow ones.
type QueryObserver struct {
	collection    string
	slowThreshold time.Duration
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewQueryObserver returns an observer for collection. Operations slower
// than slow are logged as warnings when logger is non-nil.
func NewQueryObserver(collection string, slow time.Duration, logger *slog.Logger) *QueryObserver {
	return &QueryObserver{
		collection:    collection,
		slowThreshold: slow,
		logger:        logger,
		tracer:        otel.Tracer(tracerName),
	}
}

// Start opens a client span for operation. Call the returned function with
// the operation's error once it completes:
//
//	ctx, end := obs.Start(ctx, "aggregate")
//	defer func() { end(err) }()
func (o *QueryObserver) Start(ctx context.Context, operation string) (context.Context, func(error)) {
	began := time.Now()
	ctx, span := o.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.mongodb.collection", o.collection),
			attribute.String("db.operation", operation),
		),
	)

	return ctx, func(err error) {
		elapsed := time.Since(began)
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		queryDuration.WithLabelValues(o.collection, operation, outcome).Observe(elapsed.Seconds())

		if o.logger == nil || o.slowThreshold <= 0 || elapsed < o.slowThreshold {
			return
		}
		attrs := []any{
			slog.String("collection", o.collection),
			slog.String("operation", operation),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		o.logger.WarnContext(ctx, "slow query", attrs...)
	}
}
