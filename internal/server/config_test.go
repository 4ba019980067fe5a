package server

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 9000, cfg.GRPCPort)
	assert.Equal(t, []string{"/health"}, cfg.Auth.PublicPaths)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name    string
		initial Config
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "empty config gets all defaults",
			initial: Config{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultConfig(), *cfg)
			},
		},
		{
			name: "custom values preserved",
			initial: Config{
				Host:           "0.0.0.0",
				HTTPPort:       8081,
				RequestTimeout: time.Second,
				CORS:           CORSConfig{AllowedMethods: []string{"POST"}},
				Auth:           AuthConfig{PublicPaths: []string{}},
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.Host)
				assert.Equal(t, 8081, cfg.HTTPPort)
				assert.Equal(t, time.Second, cfg.RequestTimeout)
				assert.Equal(t, []string{"POST"}, cfg.CORS.AllowedMethods)
				assert.Empty(t, cfg.Auth.PublicPaths, "explicit empty list is kept")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			cfg.ApplyDefaults()
			tt.check(t, &cfg)
		})
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("EXPRCHECK_HOST", "0.0.0.0")
	t.Setenv("EXPRCHECK_HTTP_PORT", "9090")
	t.Setenv("EXPRCHECK_GRPC_PORT", "not-a-port")
	t.Setenv("EXPRCHECK_JWT_SECRET", "from-env")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 9000, cfg.GRPCPort, "unparsable port is ignored")
	assert.Equal(t, "from-env", cfg.Auth.Secret)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"http port", func(c *Config) { c.HTTPPort = 70000 }, "http_port"},
		{"grpc port", func(c *Config) { c.GRPCPort = -1 }, "grpc_port"},
		{"same ports", func(c *Config) { c.GRPCPort = c.HTTPPort }, "must differ"},
		{"negative body", func(c *Config) { c.MaxBodyBytes = -1 }, "max_body_bytes"},
		{"short secret", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Secret = "short"
		}, "secret"},
		{"long secret", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Secret = strings.Repeat("s", 32)
		}, ""},
		{"rate limit", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.Requests = -5
		}, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
