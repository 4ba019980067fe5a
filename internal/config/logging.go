package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`
	Rotation RotationConfig `yaml:"rotation"`
	Console  ConsoleConfig  `yaml:"console"`
	File     FileConfig     `yaml:"file"`
}

// RotationConfig holds lumberjack rotation settings
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // number of files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Output  string `yaml:"output"` // stdout, stderr
}

// FileConfig holds file output configuration
type FileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// DefaultLoggingConfig returns default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
		Dir:    "logs",
		Rotation: RotationConfig{
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
		Console: ConsoleConfig{Enabled: true, Output: "stdout"},
		File:    FileConfig{Enabled: false},
	}
}

// ApplyDefaults fills in missing values. Console and file level/format
// inherit the top-level settings.
func (c *LoggingConfig) ApplyDefaults() {
	defaults := DefaultLoggingConfig()
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.Dir == "" {
		c.Dir = defaults.Dir
	}
	if c.Rotation.MaxSize == 0 {
		c.Rotation.MaxSize = defaults.Rotation.MaxSize
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = defaults.Rotation.MaxBackups
	}
	if c.Rotation.MaxAge == 0 {
		c.Rotation.MaxAge = defaults.Rotation.MaxAge
	}
	if c.Console.Level == "" {
		c.Console.Level = c.Level
	}
	if c.Console.Format == "" {
		c.Console.Format = c.Format
	}
	if c.Console.Output == "" {
		c.Console.Output = defaults.Console.Output
	}
	if c.File.Level == "" {
		c.File.Level = c.Level
	}
	if c.File.Format == "" {
		c.File.Format = c.Format
	}
}

// ApplyEnvOverrides applies EXPRCHECK_LOG_LEVEL and EXPRCHECK_LOG_FORMAT.
// They replace the inherited console and file settings too.
func (c *LoggingConfig) ApplyEnvOverrides() {
	if val := os.Getenv("EXPRCHECK_LOG_LEVEL"); val != "" {
		val = strings.ToLower(val)
		c.Level, c.Console.Level, c.File.Level = val, val, val
	}
	if val := os.Getenv("EXPRCHECK_LOG_FORMAT"); val != "" {
		val = strings.ToLower(val)
		c.Format, c.Console.Format, c.File.Format = val, val, val
	}
}

// ResolvePaths resolves the log directory. A path starting with ".." is
// taken relative to configDir, any other relative path relative to its
// parent, so logs/ ends up next to config/.
func (c *LoggingConfig) ResolvePaths(configDir string) {
	if c.Dir == "" || filepath.IsAbs(c.Dir) {
		return
	}
	if strings.HasPrefix(c.Dir, "..") {
		c.Dir = filepath.Clean(filepath.Join(configDir, c.Dir))
		return
	}
	c.Dir = filepath.Clean(filepath.Join(filepath.Dir(configDir), c.Dir))
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Validate validates the configuration
func (c *LoggingConfig) Validate() error {
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
	if c.Console.Enabled {
		if !validLevels[c.Console.Level] {
			return fmt.Errorf("invalid console log level: %s", c.Console.Level)
		}
		if !validFormats[c.Console.Format] {
			return fmt.Errorf("invalid console log format: %s", c.Console.Format)
		}
		if c.Console.Output != "stdout" && c.Console.Output != "stderr" {
			return fmt.Errorf("invalid console output: %s (must be stdout or stderr)", c.Console.Output)
		}
	}
	if c.File.Enabled {
		if c.Dir == "" {
			return fmt.Errorf("log directory cannot be empty")
		}
		if !validLevels[c.File.Level] {
			return fmt.Errorf("invalid file log level: %s", c.File.Level)
		}
		if !validFormats[c.File.Format] {
			return fmt.Errorf("invalid file log format: %s", c.File.Format)
		}
	}
	return nil
}
