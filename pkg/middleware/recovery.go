package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
	"github.com/congquynguyen296/hq-shop/pkg/httputil"
)

// Recovery turns a handler panic into a 500 and logs the stack. When the
// handler already started its response only the log entry is written.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := wrapWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "handler panicked",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", sw.wroteHeader),
					slog.String("stack", string(debug.Stack())),
				)
				if !sw.wroteHeader {
					httputil.WriteError(sw, r, apperrors.Internal(fmt.Errorf("panic: %v", rec)), l)
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
