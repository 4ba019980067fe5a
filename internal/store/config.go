package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config selects and configures the query backend.
type Config struct {
	Backend  string      `yaml:"backend"` // none, memory, mongo
	Fixtures string      `yaml:"fixtures"`
	Mongo    MongoConfig `yaml:"mongo"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI          string `yaml:"uri"`
	DatabaseName string `yaml:"database_name"`
	// FieldPrefix nests every filtered field, e.g. "data" for documents
	// stored as {_id, data: {...}}.
	FieldPrefix string `yaml:"field_prefix"`
}

// DefaultConfig returns the memory backend with the bundled fixtures.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendMemory,
		Fixtures: "fixtures.yml",
		Mongo: MongoConfig{
			URI:          "mongodb://localhost:27017",
			DatabaseName: "exprcheck",
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = defaults.Mongo.URI
	}
	if c.Mongo.DatabaseName == "" {
		c.Mongo.DatabaseName = defaults.Mongo.DatabaseName
	}
}

// ApplyEnvOverrides applies EXPRCHECK_STORAGE_* variables.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("EXPRCHECK_STORAGE_BACKEND"); val != "" {
		c.Backend = val
	}
	if val := os.Getenv("EXPRCHECK_STORAGE_FIXTURES"); val != "" {
		c.Fixtures = val
	}
	if val := os.Getenv("EXPRCHECK_MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("EXPRCHECK_MONGO_DATABASE"); val != "" {
		c.Mongo.DatabaseName = val
	}
}

// ResolvePaths resolves the fixtures file relative to configDir.
func (c *Config) ResolvePaths(configDir string) {
	if c.Fixtures != "" && !filepath.IsAbs(c.Fixtures) {
		c.Fixtures = filepath.Join(configDir, c.Fixtures)
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNone:
	case BackendMemory:
		if c.Fixtures == "" {
			return fmt.Errorf("storage.fixtures is required for the memory backend")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required for the mongo backend")
		}
		if c.Mongo.DatabaseName == "" {
			return fmt.Errorf("storage.mongo.database_name is required for the mongo backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be none, memory, or mongo)", c.Backend)
	}
	return nil
}
