package services

import "context"

// Start runs the listeners in the background. A listener failure is sent to
// Err; cancelling bgCtx stops accepting without draining, use Shutdown for
// that.
func (m *Manager) Start(bgCtx context.Context) {
	if m.server == nil {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting server",
			"host", m.cfg.Server.Host,
			"http_port", m.cfg.Server.HTTPPort,
			"grpc_port", m.cfg.Server.GRPCPort)
		if err := m.server.Start(bgCtx); err != nil {
			m.logger.Error("Server stopped with error", "error", err)
			select {
			case m.errCh <- err:
			default:
			}
		}
	}()
}
