package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/syntrixbase/exprcheck/internal/logging"
	"github.com/syntrixbase/exprcheck/internal/services"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC validation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			logger, err := logging.Initialize(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Close()

			mgr := services.NewManager(cfg, logger.Logger)

			initCtx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := mgr.Init(initCtx); err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bgCtx, bgCancel := context.WithCancel(context.Background())
			defer bgCancel()
			mgr.Start(bgCtx)

			var runErr error
			select {
			case <-sigCtx.Done():
				logger.Info("Shutting down services...")
			case runErr = <-mgr.Err():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()

			bgCancel()
			if err := mgr.Shutdown(shutdownCtx); err != nil {
				logger.Error("Shutdown finished with errors", "error", err)
			}
			logger.Info("All services stopped")
			return runErr
		},
	}
}
