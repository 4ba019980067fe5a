package services

import (
	"context"
	"fmt"

	"github.com/syntrixbase/exprcheck/internal/api/rest"
	"github.com/syntrixbase/exprcheck/internal/events"
	"github.com/syntrixbase/exprcheck/internal/server"
	"github.com/syntrixbase/exprcheck/internal/store"
	"github.com/syntrixbase/exprcheck/internal/translator"
	"github.com/syntrixbase/exprcheck/internal/validator"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

var registryLoader = schema.LoadFile

var publisherFactory = func(ctx context.Context, cfg events.Config) (events.Publisher, error) {
	return events.Open(ctx, cfg)
}

var storeFactory = func(ctx context.Context, cfg store.Config) (store.Store, error) {
	return store.Open(ctx, cfg)
}

// Init loads the schema snapshot and wires every component. On failure the
// components opened so far are closed again.
func (m *Manager) Init(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			m.closeBackends(context.Background())
		}
	}()

	if err := m.initRegistry(); err != nil {
		return err
	}

	m.publisher, err = publisherFactory(ctx, m.cfg.Events)
	if err != nil {
		return fmt.Errorf("failed to open event publisher: %w", err)
	}

	m.store, err = storeFactory(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	m.validator = validator.New(translator.New(m.registry), m.publisher, m.logger, m.cfg.Schema.DefaultEntity)

	m.server, err = server.New(m.cfg.Server, m.logger)
	if err != nil {
		return err
	}
	rest.NewHandler(m.validator, m.registry, m.store).RegisterRoutes(m.server.HTTPMux())

	m.logger.Info("Services initialized",
		"entities", len(m.registry.Names()),
		"default_entity", m.cfg.Schema.DefaultEntity,
		"storage", m.cfg.Storage.Backend,
		"events", m.cfg.Events.Enabled)
	return nil
}

func (m *Manager) initRegistry() error {
	registry, err := registryLoader(m.cfg.Schema.File)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	if name := m.cfg.Schema.DefaultEntity; name != "" {
		if _, err := registry.Entity(name); err != nil {
			return fmt.Errorf("default entity: %w", err)
		}
	}
	m.registry = registry
	return nil
}
