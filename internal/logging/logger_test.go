package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/exprcheck/internal/config"
)

func testConfig(dir string) config.LoggingConfig {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = dir
	cfg.ApplyDefaults()
	return cfg
}

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t.TempDir())
	cfg.Console.Format = "json"

	logger, err := New(cfg, &buf)
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("expression validated", "entity", "user")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "expression validated", rec["msg"])
	assert.Equal(t, "user", rec["entity"])
}

func TestNew_FilesSplitByLevel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := testConfig(dir)
	cfg.Console.Enabled = false
	cfg.File.Enabled = true

	logger, err := New(cfg, nil)
	require.NoError(t, err)

	logger.Info("info line")
	logger.Warn("warn line")
	require.NoError(t, logger.Close())

	mainLog, err := os.ReadFile(filepath.Join(dir, mainLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "info line")
	assert.Contains(t, string(mainLog), "warn line")

	errLog, err := os.ReadFile(filepath.Join(dir, errorLogFile))
	require.NoError(t, err)
	assert.NotContains(t, string(errLog), "info line")
	assert.Contains(t, string(errLog), "warn line")
}

func TestNew_NothingEnabled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Console.Enabled = false

	logger, err := New(cfg, nil)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	assert.NoError(t, logger.Close())
}

func TestInitialize_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := testConfig(t.TempDir())
	cfg.Console.Output = "stderr"
	logger, err := Initialize(cfg)
	require.NoError(t, err)
	defer logger.Close()

	assert.Same(t, logger.Logger.Handler(), slog.Default().Handler())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("component", "test").WithGroup("req")

	logger.Debug("debug only a", "id", 1)
	logger.Warn("both", "id", 2)

	assert.Contains(t, a.String(), "debug only a")
	assert.Contains(t, a.String(), "component=test")
	assert.Contains(t, a.String(), "req.id=2")
	assert.NotContains(t, b.String(), "debug only a")
	assert.Contains(t, b.String(), "both")

	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_ContinuesAfterError(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&buf, nil),
	)

	err := slog.New(h).Handler().Handle(context.Background(), slog.NewRecord(timeZero, slog.LevelInfo, "still written", 0))

	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "still written")
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	h := NewLevelFilter(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}), slog.LevelWarn)
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	require.NoError(t, h.Handle(ctx, slog.NewRecord(timeZero, slog.LevelInfo, "dropped", 0)))
	assert.Empty(t, buf.String())

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(*LevelFilter).WithGroup("g"))
	logger.Info("dropped")
	logger.Error("kept", "x", 1)
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "k=v")
	assert.Contains(t, buf.String(), "g.x=1")
}

var timeZero = time.Time{}
