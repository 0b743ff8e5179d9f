package middleware

import (
	"log/slog"
	"net/http"

	"github.com/congquynguyen296/hq-shop/pkg/logger"
)

// RequestLogger stores a request-scoped logger tagged with the method and
// path in the request context; handlers read it with logger.FromContext.
// Correlation and trace ids are added when logging with the *Context methods.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(slog.String("method", r.Method), slog.String("path", r.URL.Path))
			next.ServeHTTP(w, r.WithContext(logger.NewContext(r.Context(), l)))
		})
	}
}
