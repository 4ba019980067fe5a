package services

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/syntrixbase/exprcheck/internal/config"
	"github.com/syntrixbase/exprcheck/internal/events"
	"github.com/syntrixbase/exprcheck/internal/server"
	"github.com/syntrixbase/exprcheck/internal/store"
	"github.com/syntrixbase/exprcheck/internal/validator"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// Manager owns the long-lived components of a running exprcheck instance
// and drives their lifecycle: Init, Start, Shutdown.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	registry  *schema.Registry
	validator *validator.Service
	publisher events.Publisher
	store     store.Store
	server    server.Service

	errCh chan error
	wg    sync.WaitGroup
}

// NewManager creates a manager for cfg. A nil logger uses slog.Default.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.With("component", "manager"),
		errCh:  make(chan error, 1),
	}
}

// Registry returns the loaded schema registry. Nil before Init.
func (m *Manager) Registry() *schema.Registry {
	return m.registry
}

// Validator returns the validation service. Nil before Init.
func (m *Manager) Validator() *validator.Service {
	return m.validator
}

// Handler returns the HTTP handler with the full middleware chain.
func (m *Manager) Handler() http.Handler {
	if m.server == nil {
		return http.NotFoundHandler()
	}
	return m.server.Handler()
}

// Err reports a listener failure after Start.
func (m *Manager) Err() <-chan error {
	return m.errCh
}
