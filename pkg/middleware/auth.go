package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/congquynguyen296/hq-shop/pkg/httputil"
)

// RequireToken guards administrative routes with a static bearer token.
// An empty token leaves the routes open, which is only meant for local runs.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, got, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeUnauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="search-admin"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Fail("UNAUTHORIZED", message))
}
