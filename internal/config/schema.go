package config

import (
	"errors"
	"os"
	"path/filepath"
)

// SchemaConfig locates the entity descriptors.
type SchemaConfig struct {
	File string `yaml:"file"`
	// DefaultEntity is used when a request names no entity.
	DefaultEntity string `yaml:"default_entity"`
}

// DefaultSchemaConfig returns the bundled schema file.
func DefaultSchemaConfig() SchemaConfig {
	return SchemaConfig{File: "schemas.yml"}
}

func (c *SchemaConfig) ApplyDefaults() {
	if c.File == "" {
		c.File = DefaultSchemaConfig().File
	}
}

func (c *SchemaConfig) ApplyEnvOverrides() {
	if val := os.Getenv("EXPRCHECK_SCHEMA_FILE"); val != "" {
		c.File = val
	}
	if val := os.Getenv("EXPRCHECK_DEFAULT_ENTITY"); val != "" {
		c.DefaultEntity = val
	}
}

// ResolvePaths resolves the schema file relative to configDir.
func (c *SchemaConfig) ResolvePaths(configDir string) {
	if c.File != "" && !filepath.IsAbs(c.File) {
		c.File = filepath.Join(configDir, c.File)
	}
}

func (c *SchemaConfig) Validate() error {
	if c.File == "" {
		return errors.New("schema.file is required")
	}
	return nil
}
