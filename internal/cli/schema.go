package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/syntrixbase/exprcheck/internal/translator"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

func newSchemaCommand(root *rootOptions) *cobra.Command {
	var (
		schemaFile string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "schema [entity]",
		Short: "List entities, or the fields and operators of one entity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if schemaFile == "" {
				schemaFile = cfg.Schema.File
			}
			registry, err := schema.LoadFile(schemaFile)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return listEntities(cmd, registry, cfg.Schema.DefaultEntity)
			}
			entity, err := registry.Entity(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entity)
			}
			return describeEntity(cmd, entity)
		},
	}

	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "schema file (defaults to schema.file)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the entity descriptor as JSON")
	return cmd
}

func listEntities(cmd *cobra.Command, registry *schema.Registry, defaultEntity string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tFIELDS\tRELATIONS\tDESCRIPTION")
	for _, e := range registry.Entities() {
		name := e.Name
		if name == defaultEntity {
			name += " (default)"
		}
		relations, err := registry.DeclaredRelations(e.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, len(e.Fields), dashIfEmpty(strings.Join(relations, ",")), e.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printf(cmd, "operator matrix %s\n", translator.MatrixVersion)
	return nil
}

func describeEntity(cmd *cobra.Command, e *schema.Entity) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tOPERATORS")
	for _, f := range e.Fields {
		typ := string(f.Type)
		if f.Type == schema.TypeRelation {
			typ += " -> " + f.Target
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, typ, joinOperators(translator.OperatorsFor(f.Type)))
	}
	return tw.Flush()
}

func joinOperators(ops []model.Operator) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, " ")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
