package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name      string
		allowed   []string
		origin    string
		wantAllow string
		wantVary  string
	}{
		{"wildcard", []string{"*"}, "https://shop.example.com", "*", ""},
		{"wildcard without origin", []string{"*"}, "", "*", ""},
		{"listed origin", []string{"https://shop.example.com"}, "https://shop.example.com", "https://shop.example.com", "Origin"},
		{"listed origin with spaces", []string{" https://admin.example.com "}, "https://admin.example.com", "https://admin.example.com", "Origin"},
		{"unlisted origin", []string{"https://shop.example.com"}, "https://evil.example.com", "", "Origin"},
		{"same-origin request", []string{"https://shop.example.com"}, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			CORS(DefaultCORSConfig(tt.allowed))(okHandler()).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantAllow, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVary, rr.Header().Get("Vary"))
			assert.Equal(t, CorrelationHeader, rr.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	handler := CORS(DefaultCORSConfig([]string{"*"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search/reindex", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, called)
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Authorization, Content-Type, X-Correlation-ID", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_CustomConfig(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         60,
	})(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "GET", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "60", rr.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rr.Header().Get("Access-Control-Expose-Headers"))
}
