package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syntrixbase/exprcheck/internal/events"
	"github.com/syntrixbase/exprcheck/internal/server"
	"github.com/syntrixbase/exprcheck/internal/store"
	"gopkg.in/yaml.v3"
)

// DefaultDir is where LoadConfig looks for config.yml when no directory is
// given.
const DefaultDir = "config"

// Config holds the application configuration
type Config struct {
	Server  server.Config `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Schema  SchemaConfig  `yaml:"schema"`
	Storage store.Config  `yaml:"storage"`
	Events  events.Config `yaml:"events"`
}

// Default returns the built-in configuration before any file is read.
func Default() *Config {
	return &Config{
		Server:  server.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
		Schema:  DefaultSchemaConfig(),
		Storage: store.DefaultConfig(),
		Events:  events.DefaultConfig(),
	}
}

// LoadConfig loads configuration from files and environment variables.
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults ->
// ApplyEnvOverrides -> ResolvePaths -> Validate.
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultDir
	}
	cfg := Default()

	for _, name := range []string{"config.yml", "config.local.yml"} {
		if err := loadFile(filepath.Join(configDir, name), cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyServiceConfigs(configDir,
		&cfg.Server,
		&cfg.Logging,
		&cfg.Schema,
		&cfg.Storage,
		&cfg.Events,
	); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// loadFile merges filename into cfg. A missing file is not an error.
func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}
