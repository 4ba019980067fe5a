package events

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Config controls outcome event publishing.
type Config struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
	RetryAttempts int    `yaml:"retry_attempts"`
	// Storage is "memory" or "file".
	Storage string `yaml:"storage"`
}

// DefaultConfig returns a disabled publisher pointed at a local server.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Stream:        "EXPRCHECK",
		SubjectPrefix: "exprcheck",
		RetryAttempts: 2,
		Storage:       "memory",
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.Stream == "" {
		c.Stream = defaults.Stream
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = defaults.SubjectPrefix
	}
	if c.Storage == "" {
		c.Storage = defaults.Storage
	}
}

// ApplyEnvOverrides applies EXPRCHECK_EVENTS_* and EXPRCHECK_NATS_URL.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("EXPRCHECK_EVENTS_ENABLED"); val != "" {
		c.Enabled = strings.EqualFold(val, "true") || val == "1"
	}
	if val := os.Getenv("EXPRCHECK_NATS_URL"); val != "" {
		c.URL = val
	}
}

// ResolvePaths is a no-op; the events config has no paths.
func (c *Config) ResolvePaths(_ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return errors.New("events.url is required when events are enabled")
	}
	if c.RetryAttempts < 0 {
		return errors.New("events.retry_attempts must not be negative")
	}
	switch c.Storage {
	case "memory", "file":
	default:
		return errors.New("events.storage must be memory or file")
	}
	return nil
}

// Options converts the config into publisher options.
func (c Config) Options() Options {
	return Options{
		StreamName:    c.Stream,
		SubjectPrefix: c.SubjectPrefix,
		RetryAttempts: c.RetryAttempts,
		FileStorage:   c.Storage == "file",
	}
}

// Open returns a NopPublisher when events are disabled, otherwise a
// JetStream publisher connected to cfg.URL.
func Open(ctx context.Context, cfg Config) (Publisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	return Connect(ctx, cfg.URL, cfg.Options())
}
