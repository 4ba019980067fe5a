// Package ratelimit throttles HTTP clients with per-key token buckets.
package ratelimit

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow consumes one token for key. When the bucket is empty it returns
	// false and how long the caller should wait before the next token.
	Allow(key string) (bool, time.Duration)

	// Reset forgets the bucket for key.
	Reset(key string)

	// Stop releases background resources.
	Stop()
}

// Config holds the configuration for rate limiting.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// Requests is the bucket capacity, refilled evenly over Window.
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`

	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP instead of the
	// socket address.
	TrustProxy bool `yaml:"trust_proxy"`
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Requests: 120,
		Window:   time.Minute,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Requests == 0 {
		c.Requests = defaults.Requests
	}
	if c.Window == 0 {
		c.Window = defaults.Window
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Requests <= 0 {
		return errors.New("rate_limit.requests must be positive")
	}
	if c.Window <= 0 {
		return errors.New("rate_limit.window must be positive")
	}
	return nil
}

// ClientKey identifies the caller of r.
func ClientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
