package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestLabels = []string{"service", "method", "route", "code"}

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route pattern and status code.",
	}, requestLabels)

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, requestLabels)

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response body size before compression.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 7),
	}, requestLabels)

	httpRequestsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	}, []string{"service"})
)

// PrometheusMetrics records request count, latency and response size per
// chi route pattern, plus the number of requests in flight.
func PrometheusMetrics(service string) func(next http.Handler) http.Handler {
	inFlight := httpRequestsInFlight.WithLabelValues(service)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight.Inc()
			defer inFlight.Dec()

			began := time.Now()
			sw := wrapWriter(w)
			next.ServeHTTP(sw, r)

			route := routePattern(r)
			if route == "" {
				route = "unmatched"
			}
			labels := prometheus.Labels{
				"service": service,
				"method":  r.Method,
				"route":   route,
				"code":    strconv.Itoa(sw.status),
			}
			httpRequestsTotal.With(labels).Inc()
			httpRequestDuration.With(labels).Observe(time.Since(began).Seconds())
			httpResponseSize.With(labels).Observe(float64(sw.bytes))
		})
	}
}
