package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks successful GET responses as publicly cacheable for
// maxAge seconds. Error responses are left uncached.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&cacheWriter{ResponseWriter: w, value: value}, r)
		})
	}
}

type cacheWriter struct {
	http.ResponseWriter
	value       string
	wroteHeader bool
}

func (w *cacheWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if code >= 200 && code < 300 {
			w.Header().Set("Cache-Control", w.value)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cacheWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
