package services

import (
	"context"
	"errors"
)

// Shutdown drains the listeners, waits for background tasks and closes the
// backends. It is safe to call after a failed Init.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error

	if m.server != nil {
		m.logger.Info("Stopping server...")
		if err := m.server.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	m.logger.Info("Waiting for background tasks to finish...")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks")
	}

	errs = append(errs, m.closeBackends(ctx))
	return errors.Join(errs...)
}

func (m *Manager) closeBackends(ctx context.Context) error {
	var errs []error
	if m.store != nil {
		if err := m.store.Close(ctx); err != nil {
			m.logger.Error("Error closing store", "error", err)
			errs = append(errs, err)
		}
		m.store = nil
	}
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Error("Error closing event publisher", "error", err)
			errs = append(errs, err)
		}
		m.publisher = nil
	}
	return errors.Join(errs...)
}
