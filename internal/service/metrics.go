package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/congquynguyen296/hq-shop/internal/service"

var tracer = otel.Tracer(tracerName)

var (
	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests by the backend that served them",
		},
		[]string{"source"},
	)

	indexFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_index_fallbacks_total",
			Help: "Total number of searches served by the store after the index failed",
		},
		[]string{"reason"},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_backend_duration_seconds",
			Help:    "Duration of backend calls made while serving searches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	aggregateCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_aggregate_cache_total",
			Help: "Aggregate cache lookups by result",
		},
		[]string{"result"},
	)
)
