package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig describes which browser origins may call the API.
type CORSConfig struct {
	// AllowedOrigins lists accepted origins. "*" allows any origin.
	AllowedOrigins []string
	// AllowedMethods defaults to GET, POST and OPTIONS.
	AllowedMethods []string
	// AllowedHeaders defaults to Accept, Authorization, Content-Type and
	// the correlation header.
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds, 3600 when zero.
	MaxAge int
}

// DefaultCORSConfig returns the policy for the search API: read endpoints
// plus the token-protected reindex POST, exposing the correlation header.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		ExposedHeaders: []string{CorrelationHeader},
	}
}

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]bool

	methods string
	headers string
	exposed string
	maxAge  string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Authorization", "Content-Type", CorrelationHeader}
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 3600
	}

	p := corsPolicy{
		origins: make(map[string]bool, len(cfg.AllowedOrigins)),
		methods: strings.Join(methods, ", "),
		headers: strings.Join(headers, ", "),
		exposed: strings.Join(cfg.ExposedHeaders, ", "),
		maxAge:  strconv.Itoa(maxAge),
	}
	for _, o := range cfg.AllowedOrigins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = true
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not allowed.
func (p corsPolicy) allowOrigin(origin string) string {
	switch {
	case p.anyOrigin:
		return "*"
	case p.origins[origin]:
		return origin
	default:
		return ""
	}
}

// CORS applies cfg to every response. OPTIONS requests are answered with
// 204 and never reach next.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			if !p.anyOrigin && origin != "" {
				h.Add("Vary", "Origin")
			}
			if allowed := p.allowOrigin(origin); allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
			}
			if p.exposed != "" {
				h.Set("Access-Control-Expose-Headers", p.exposed)
			}
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			h.Set("Access-Control-Max-Age", p.maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
