// Package httpclient builds the pooled HTTP transport shared by outbound
// clients.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config holds HTTP transport configuration.
type Config struct {
	DialTimeout     time.Duration
	MaxConnsPerHost int
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults for an HTTP transport.
func DefaultConfig() Config {
	return Config{
		DialTimeout:     10 * time.Second,
		MaxConnsPerHost: 100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// NewTransport creates a pooled transport. It never retries; callers that
// want retries or fallbacks decide that themselves.
func NewTransport(cfg Config) *http.Transport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = DefaultConfig().IdleConnTimeout
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
