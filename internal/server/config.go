package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/syntrixbase/exprcheck/internal/server/ratelimit"
)

// Config holds the configuration for the HTTP and gRPC listeners.
type Config struct {
	Host string `yaml:"host"`

	// HTTP Configuration
	HTTPPort         int           `yaml:"http_port"`
	HTTPReadTimeout  time.Duration `yaml:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `yaml:"http_write_timeout"`
	HTTPIdleTimeout  time.Duration `yaml:"http_idle_timeout"`

	// RequestTimeout bounds the context handed to every HTTP handler.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MaxBodyBytes caps request bodies; larger bodies are rejected with 413.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	CORS      CORSConfig       `yaml:"cors"`
	RateLimit ratelimit.Config `yaml:"rate_limit"`
	Auth      AuthConfig       `yaml:"auth"`

	// gRPC Configuration
	GRPCPort          int  `yaml:"grpc_port"`
	GRPCMaxConcurrent uint `yaml:"grpc_max_concurrent"`
	EnableReflection  bool `yaml:"enable_reflection"`

	// Lifecycle Configuration
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CORSConfig controls cross-origin access to the HTTP API.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// AuthConfig enables HS256 bearer token verification on the HTTP API.
type AuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	// PublicPaths are path prefixes served without a token.
	PublicPaths []string `yaml:"public_paths"`
}

// DefaultConfig returns safe defaults for development.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		HTTPPort:         8080,
		HTTPReadTimeout:  10 * time.Second,
		HTTPWriteTimeout: 10 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,
		RequestTimeout:   5 * time.Second,
		MaxBodyBytes:     1 << 20,
		CORS: CORSConfig{
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:         600,
		},
		RateLimit: ratelimit.DefaultConfig(),
		Auth: AuthConfig{
			PublicPaths: []string{"/health"},
		},
		GRPCPort:          9000,
		GRPCMaxConcurrent: 100,
		ShutdownTimeout:   10 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = defaults.HTTPPort
	}
	if c.HTTPReadTimeout == 0 {
		c.HTTPReadTimeout = defaults.HTTPReadTimeout
	}
	if c.HTTPWriteTimeout == 0 {
		c.HTTPWriteTimeout = defaults.HTTPWriteTimeout
	}
	if c.HTTPIdleTimeout == 0 {
		c.HTTPIdleTimeout = defaults.HTTPIdleTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = defaults.CORS.AllowedMethods
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = defaults.CORS.AllowedHeaders
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = defaults.CORS.MaxAge
	}
	c.RateLimit.ApplyDefaults()
	if c.Auth.PublicPaths == nil {
		c.Auth.PublicPaths = defaults.Auth.PublicPaths
	}
	if c.GRPCPort == 0 {
		c.GRPCPort = defaults.GRPCPort
	}
	if c.GRPCMaxConcurrent == 0 {
		c.GRPCMaxConcurrent = defaults.GRPCMaxConcurrent
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EXPRCHECK_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("EXPRCHECK_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := os.Getenv("EXPRCHECK_GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.GRPCPort = port
		}
	}
	if v := os.Getenv("EXPRCHECK_JWT_SECRET"); v != "" {
		c.Auth.Secret = v
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in server config.
func (c *Config) ResolvePaths(_ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", c.HTTPPort)
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d out of range", c.GRPCPort)
	}
	if c.GRPCPort == c.HTTPPort {
		return errors.New("server.grpc_port must differ from server.http_port")
	}
	if c.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}
	if c.Auth.Enabled && len(c.Auth.Secret) < 32 {
		return errors.New("server.auth.secret must be at least 32 bytes when auth is enabled")
	}
	return c.RateLimit.Validate()
}
