package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/congquynguyen296/hq-shop/pkg/health"
	"github.com/congquynguyen296/hq-shop/pkg/middleware"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "search-service"

// filtersMaxAge is how long clients may cache filter options, in seconds.
const filtersMaxAge = 60

// RouterConfig carries the HTTP-level settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	AdminToken     string
	RequestTimeout time.Duration
	// RateLimitRPS caps requests per client IP on the search API; zero
	// disables the limit.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	searchHandler *SearchHandler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		r.Get("/", searchHandler.Search)
		r.Get("/suggestions", searchHandler.Suggestions)
		r.Get("/popular", searchHandler.Popular)
		r.With(middleware.CacheControl(filtersMaxAge)).Get("/filters", searchHandler.Filters)

		r.With(middleware.RequireToken(cfg.AdminToken)).Post("/reindex", searchHandler.Reindex)
	})

	return r
}
