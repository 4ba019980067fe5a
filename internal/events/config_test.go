package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "nats://localhost:4222", cfg.URL)
	assert.Equal(t, "EXPRCHECK", cfg.Stream)
	assert.Equal(t, "exprcheck", cfg.SubjectPrefix)
	assert.Equal(t, "memory", cfg.Storage)
	assert.False(t, cfg.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("EXPRCHECK_EVENTS_ENABLED", "TRUE")
	t.Setenv("EXPRCHECK_NATS_URL", "nats://bus:4222")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "nats://bus:4222", cfg.URL)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled ignores fields", func(c *Config) { c.URL = ""; c.Storage = "tape" }, false},
		{"enabled ok", func(c *Config) { c.Enabled = true }, false},
		{"missing url", func(c *Config) { c.Enabled = true; c.URL = "" }, true},
		{"negative retries", func(c *Config) { c.Enabled = true; c.RetryAttempts = -1 }, true},
		{"bad storage", func(c *Config) { c.Enabled = true; c.Storage = "tape" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage = "file"

	opts := cfg.Options()
	assert.Equal(t, "EXPRCHECK", opts.StreamName)
	assert.Equal(t, "exprcheck", opts.SubjectPrefix)
	assert.Equal(t, 2, opts.RetryAttempts)
	assert.True(t, opts.FileStorage)
}

func TestOpen_Disabled(t *testing.T) {
	pub, err := Open(context.Background(), DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, pub)
}
