package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/congquynguyen296/hq-shop/pkg/httputil"
)

// clientTTL is how long an idle client's bucket is kept.
const clientTTL = 3 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per client IP. Idle buckets are swept
// on access at most once per clientTTL.
type limiterSet struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{
		clients: make(map[string]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (s *limiterSet) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= clientTTL {
		for k, c := range s.clients {
			if now.Sub(c.lastSeen) >= clientTTL {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}

	c, ok := s.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// RateLimit caps each client IP at rps requests per second with the given
// burst, answering 429 beyond it. A non-positive rps disables limiting.
func RateLimit(rps float64, burst int, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		set := newLimiterSet(rps, burst)
		retryAfter := strconv.Itoa(int(max(1, 1/rps)))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if set.get(ip).Allow() {
				next.ServeHTTP(w, r)
				return
			}
			l.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", retryAfter)
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Fail("RATE_LIMITED", "too many requests"))
		})
	}
}

// clientIP prefers the first valid address in X-Forwarded-For, then
// X-Real-IP, then the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
