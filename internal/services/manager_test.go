package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/exprcheck/internal/config"
	"github.com/syntrixbase/exprcheck/internal/events"
	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/internal/store"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

const testSchema = `
entities:
  - name: user
    fields:
      - {name: name, type: string}
      - {name: age, type: integer}
`

const testFixtures = `
user:
  - {id: u1, name: Ada, age: 36}
  - {id: u2, name: Alan, age: 41}
`

type fakePublisher struct {
	closed bool
	err    error
}

func (p *fakePublisher) Publish(context.Context, events.Event) error { return nil }

func (p *fakePublisher) Close() error {
	p.closed = true
	return p.err
}

type fakeStore struct {
	closed bool
}

func (s *fakeStore) Find(context.Context, *schema.Entity, predicate.Predicate, int) ([]store.Document, error) {
	return []store.Document{}, nil
}

func (s *fakeStore) Close(context.Context) error {
	s.closed = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemas.yml"), []byte(testSchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixtures.yml"), []byte(testFixtures), 0o644))

	cfg := config.Default()
	cfg.Schema.File = filepath.Join(dir, "schemas.yml")
	cfg.Schema.DefaultEntity = "user"
	cfg.Storage.Fixtures = filepath.Join(dir, "fixtures.yml")
	return cfg
}

func stubFactories(t *testing.T, pub events.Publisher, st store.Store) {
	t.Helper()
	origPub, origStore := publisherFactory, storeFactory
	t.Cleanup(func() {
		publisherFactory, storeFactory = origPub, origStore
	})
	if pub != nil {
		publisherFactory = func(context.Context, events.Config) (events.Publisher, error) { return pub, nil }
	}
	if st != nil {
		storeFactory = func(context.Context, store.Config) (store.Store, error) { return st, nil }
	}
}

func TestManager_Init_ServesRoutes(t *testing.T) {
	mgr := NewManager(testConfig(t), nil)
	require.NoError(t, mgr.Init(context.Background()))
	defer mgr.Shutdown(context.Background())

	require.NotNil(t, mgr.Registry())
	require.NotNil(t, mgr.Validator())

	h := mgr.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/validate", strings.NewReader(`{"field":"age","op":"gt","value":40}`)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"field":"age","op":"gt","value":40}`)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"u2"`)
	assert.NotContains(t, w.Body.String(), `"u1"`)
}

func TestManager_Init_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:    "missing schema file",
			mutate:  func(cfg *config.Config) { cfg.Schema.File = filepath.Join(t.TempDir(), "absent.yml") },
			wantErr: "failed to load schema",
		},
		{
			name:    "unknown default entity",
			mutate:  func(cfg *config.Config) { cfg.Schema.DefaultEntity = "invoice" },
			wantErr: "default entity",
		},
		{
			name:    "missing fixtures",
			mutate:  func(cfg *config.Config) { cfg.Storage.Fixtures = filepath.Join(t.TempDir(), "absent.yml") },
			wantErr: "failed to open store",
		},
		{
			name: "auth without secret",
			mutate: func(cfg *config.Config) {
				cfg.Server.Auth.Enabled = true
				cfg.Server.Auth.Secret = ""
			},
			wantErr: "server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			err := NewManager(cfg, nil).Init(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManager_Init_FailureClosesBackends(t *testing.T) {
	pub := &fakePublisher{}
	stubFactories(t, pub, nil)

	cfg := testConfig(t)
	cfg.Storage.Backend = "cassandra"

	err := NewManager(cfg, nil).Init(context.Background())
	require.Error(t, err)
	assert.True(t, pub.closed)
}

func TestManager_Shutdown_ClosesBackends(t *testing.T) {
	pub := &fakePublisher{err: errors.New("drain failed")}
	st := &fakeStore{}
	stubFactories(t, pub, st)

	mgr := NewManager(testConfig(t), nil)
	require.NoError(t, mgr.Init(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := mgr.Shutdown(ctx)

	assert.ErrorContains(t, err, "drain failed")
	assert.True(t, pub.closed)
	assert.True(t, st.closed)
}

func TestManager_Shutdown_WithoutInit(t *testing.T) {
	mgr := NewManager(testConfig(t), nil)
	assert.NoError(t, mgr.Shutdown(context.Background()))
	assert.Equal(t, http.StatusNotFound, func() int {
		w := httptest.NewRecorder()
		mgr.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		return w.Code
	}())
}
