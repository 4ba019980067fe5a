// Package cli implements the exprcheck command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/syntrixbase/exprcheck/internal/config"
)

// ErrInvalid is returned by check when the expression has problems. The
// problems themselves are already printed.
var ErrInvalid = errors.New("expression is invalid")

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalid):
		return 1
	default:
		return 2
	}
}

type rootOptions struct {
	configDir string
	logLevel  string
}

// NewRootCommand builds the exprcheck command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "exprcheck",
		Short:         "Validate filter expressions against entity schemas",
		Long:          `exprcheck translates JSON filter expressions into typed predicates and reports every field or operator it cannot resolve.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&opts.configDir, "config", config.DefaultDir, "configuration directory")
	pflags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newSchemaCommand(opts))

	return cmd
}

// load reads the configuration directory and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		cfg.Logging.Console.Level = o.logLevel
		cfg.Logging.File.Level = o.logLevel
	}
	return cfg, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
