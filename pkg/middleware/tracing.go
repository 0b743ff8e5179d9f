package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationPrefix = "github.com/congquynguyen296/hq-shop/"

// Tracing opens a server span per request, continuing any inbound W3C trace
// context, and echoes the trace context on the response. Once routing is
// done the span takes the chi route pattern as its name.
func Tracing(service string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(instrumentationPrefix + service)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			prop := otel.GetTextMapPropagator()
			ctx, span := tracer.Start(
				prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header)),
				r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(requestAttributes(r)...),
			)
			defer span.End()
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			sw := wrapWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if route := routePattern(r); route != "" {
				span.SetName(r.Method + " " + route)
				span.SetAttributes(semconv.HTTPRoute(route))
			}
			span.SetAttributes(semconv.HTTPStatusCode(sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			}
		})
	}
}
