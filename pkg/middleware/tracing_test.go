package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans routes spans to memory for the duration of the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func tracedRouter(pattern string, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(Tracing("search-service"))
	r.Get(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func onlySpan(t *testing.T, exporter *tracetest.InMemoryExporter) tracetest.SpanStub {
	t.Helper()
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	return spans[0]
}

func spanAttrs(span tracetest.SpanStub) map[string]string {
	out := make(map[string]string, len(span.Attributes))
	for _, a := range span.Attributes {
		out[string(a.Key)] = a.Value.Emit()
	}
	return out
}

func TestTracing_NamesSpanByRoute(t *testing.T) {
	exporter := recordSpans(t)

	rec := httptest.NewRecorder()
	tracedRouter("/api/v1/search/{kind}", http.StatusOK).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search/popular?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	span := onlySpan(t, exporter)
	attrs := spanAttrs(span)
	assert.Equal(t, "GET /api/v1/search/{kind}", span.Name)
	assert.Equal(t, "/api/v1/search/{kind}", attrs["http.route"])
	assert.Equal(t, "/api/v1/search/popular?limit=5", attrs["http.target"])
	assert.Equal(t, "http", attrs["http.scheme"])
}

func TestTracing_StatusHandling(t *testing.T) {
	tests := []struct {
		status   int
		wantCode codes.Code
	}{
		{http.StatusOK, codes.Unset},
		{http.StatusNotFound, codes.Unset},
		{http.StatusServiceUnavailable, codes.Error},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			exporter := recordSpans(t)

			tracedRouter("/x", tt.status).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			span := onlySpan(t, exporter)
			assert.Equal(t, tt.wantCode, span.Status.Code)
			assert.Equal(t, int64(tt.status), attrInt(span, "http.status_code"))
		})
	}
}

func attrInt(span tracetest.SpanStub, key string) int64 {
	for _, a := range span.Attributes {
		if string(a.Key) == key {
			return a.Value.AsInt64()
		}
	}
	return 0
}

func TestTracing_ForwardedScheme(t *testing.T) {
	exporter := recordSpans(t)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	tracedRouter("/x", http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "https", spanAttrs(onlySpan(t, exporter))["http.scheme"])
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := recordSpans(t)

	req := httptest.NewRequest(http.MethodGet, "/traced", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedRouter("/traced", http.StatusOK).ServeHTTP(rec, req)

	span := onlySpan(t, exporter)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent.SpanID().String())
	assert.Contains(t, rec.Header().Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}
