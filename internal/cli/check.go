package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/syntrixbase/exprcheck/internal/config"
	"github.com/syntrixbase/exprcheck/internal/logging"
	"github.com/syntrixbase/exprcheck/internal/translator"
	"github.com/syntrixbase/exprcheck/internal/validator"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

type checkOptions struct {
	entity     string
	schemaFile string
	render     []string
	jsonOutput bool
}

func newCheckCommand(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Validate one expression document",
		Long: `Validate a filter expression read from a file, or from stdin when the
argument is "-" or omitted.

On success the normalized expression is printed. On failure every problem
is printed and the exit status is 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if root.logLevel == "" {
				cfg.Logging.Console.Level = "warn"
			}
			return runCheck(cmd, cfg, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.entity, "entity", "e", "", "root entity (defaults to schema.default_entity)")
	flags.StringVarP(&opts.schemaFile, "schema", "s", "", "schema file (defaults to schema.file)")
	flags.StringSliceVarP(&opts.render, "render", "r", nil, "backend renderings to print (mongo, sql, cel)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print the outcome as JSON")

	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, opts *checkOptions, args []string) error {
	formats := make([]validator.Format, 0, len(opts.render))
	for _, name := range opts.render {
		f, err := validator.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	body, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	schemaFile := cfg.Schema.File
	if opts.schemaFile != "" {
		schemaFile = opts.schemaFile
	}
	registry, err := schema.LoadFile(schemaFile)
	if err != nil {
		return err
	}

	// Diagnostics go to stderr so stdout carries only the result.
	cfg.Logging.Console.Output = "stderr"
	cfg.Logging.File.Enabled = false
	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	svc := validator.New(translator.New(registry), nil, logger.Logger, cfg.Schema.DefaultEntity)
	out, err := svc.Validate(cmd.Context(), body, opts.entity, formats...)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		printOutcome(cmd, out)
	}

	if !out.Valid {
		return ErrInvalid
	}
	return nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read expression: %w", err)
	}
	return data, nil
}

func printOutcome(cmd *cobra.Command, out *validator.Outcome) {
	if !out.Valid {
		printf(cmd, "invalid expression for %s (%d problems)\n", out.Entity, len(out.Errors))
		for _, p := range out.Errors {
			path := p.Path
			if path == "" {
				path = "/"
			}
			printf(cmd, "  %s  %s: %s\n", path, p.Kind, p.Message)
		}
		return
	}

	printf(cmd, "%s\n", out.Pretty)
	printf(cmd, "fields: %s\n", strings.Join(out.Fields, ", "))

	r := out.Renderings
	if r == nil {
		return
	}
	if len(r.Mongo) > 0 {
		printf(cmd, "mongo: %s\n", r.Mongo)
	}
	if r.SQL != nil {
		args, _ := json.Marshal(r.SQL.Args)
		printf(cmd, "sql: %s\nsql args: %s\n", r.SQL.SQL, args)
	}
	if r.CEL != "" {
		printf(cmd, "cel: %s\n", r.CEL)
	}
}
