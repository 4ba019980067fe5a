package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/exprcheck/internal/store"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadConfig_DefaultsWithoutFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, filepath.Join(dir, "schemas.yml"), cfg.Schema.File)
	assert.Equal(t, store.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "fixtures.yml"), cfg.Storage.Fixtures)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "info", cfg.Logging.Console.Level)
	assert.Equal(t, filepath.Join(filepath.Dir(dir), "logs"), cfg.Logging.Dir)
}

func TestLoadConfig_Layering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yml", `
server:
  http_port: 8181
  request_timeout: 2s
  rate_limit:
    enabled: true
    requests: 10
schema:
  file: entities.yml
  default_entity: user
storage:
  backend: none
logging:
  level: debug
`)
	writeFile(t, dir, "config.local.yml", `
server:
  http_port: 8282
events:
  enabled: true
  subject_prefix: dev
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8282, cfg.Server.HTTPPort, "local file wins")
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.Server.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.Server.RateLimit.Window, "defaults fill gaps")
	assert.Equal(t, filepath.Join(dir, "entities.yml"), cfg.Schema.File)
	assert.Equal(t, "user", cfg.Schema.DefaultEntity)
	assert.Equal(t, store.BackendNone, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "debug", cfg.Logging.Console.Level, "console inherits level")
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "dev", cfg.Events.SubjectPrefix)
	assert.Equal(t, "EXPRCHECK", cfg.Events.Stream)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yml", "server:\n  http_port: 8181\n")
	t.Setenv("EXPRCHECK_HTTP_PORT", "9191")
	t.Setenv("EXPRCHECK_DEFAULT_ENTITY", "order")
	t.Setenv("EXPRCHECK_STORAGE_BACKEND", "none")
	t.Setenv("EXPRCHECK_LOG_LEVEL", "WARN")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.HTTPPort)
	assert.Equal(t, "order", cfg.Schema.DefaultEntity)
	assert.Equal(t, store.BackendNone, cfg.Storage.Backend)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "warn", cfg.Logging.Console.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid yaml", "server: [", "parse"},
		{"invalid section", "storage:\n  backend: redis\n", "invalid storage backend"},
		{"invalid log level", "logging:\n  level: loud\n", "invalid log level"},
		{"auth without secret", "server:\n  auth:\n    enabled: true\n", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "config.yml", tt.content)

			_, err := LoadConfig(dir)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoggingConfig_ResolvePaths(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"logs", filepath.Join("/srv/app", "logs")},
		{"../var/log", filepath.Clean("/srv/app/var/log")},
		{"/var/log/exprcheck", "/var/log/exprcheck"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			cfg := LoggingConfig{Dir: tt.dir}
			cfg.ResolvePaths("/srv/app/config")
			assert.Equal(t, tt.want, cfg.Dir)
		})
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoggingConfig)
		wantErr bool
	}{
		{"defaults", func(*LoggingConfig) {}, false},
		{"bad format", func(c *LoggingConfig) { c.Format = "xml" }, true},
		{"bad console output", func(c *LoggingConfig) { c.Console.Output = "tty" }, true},
		{"disabled console ignores output", func(c *LoggingConfig) {
			c.Console.Enabled = false
			c.Console.Output = "tty"
		}, false},
		{"file without dir", func(c *LoggingConfig) {
			c.File.Enabled = true
			c.Dir = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLoggingConfig()
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestSchemaConfig(t *testing.T) {
	var cfg SchemaConfig
	cfg.ApplyDefaults()
	cfg.ResolvePaths("/etc/exprcheck")
	assert.Equal(t, "/etc/exprcheck/schemas.yml", cfg.File)
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&SchemaConfig{}).Validate())
}

type recordingConfig struct {
	calls []string
	err   error
}

func (r *recordingConfig) ApplyDefaults()          { r.calls = append(r.calls, "defaults") }
func (r *recordingConfig) ApplyEnvOverrides()      { r.calls = append(r.calls, "env") }
func (r *recordingConfig) ResolvePaths(dir string) { r.calls = append(r.calls, "paths:"+dir) }
func (r *recordingConfig) Validate() error {
	r.calls = append(r.calls, "validate")
	return r.err
}

func TestApplyServiceConfigs(t *testing.T) {
	first := &recordingConfig{}
	failing := &recordingConfig{err: assert.AnError}
	never := &recordingConfig{}

	err := ApplyServiceConfigs("cfg", first, failing, never)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"defaults", "env", "paths:cfg", "validate"}, first.calls)
	assert.Len(t, failing.calls, 4)
	assert.Empty(t, never.calls)
}
