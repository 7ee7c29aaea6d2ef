package main

import (
	"context"
	"encoding/json"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/schemagen"

	"github.com/spf13/cobra"
)

var schemaFlags struct {
	tools  string
	result bool
}

var schemaCmd = &cobra.Command{
	Use:   "schema [tool]",
	Short: "Print the JSON Schemas clients see",
	Long: `Print the input schema of one tool, or of every tool keyed by name.

With --result, print the schema of call results instead. Results are the
same for every tool.

Examples:
  parley schema book_flight
  parley schema --result`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVarP(&schemaFlags.tools, "tools", "t", "", "tools file (default from config)")
	schemaCmd.Flags().BoolVar(&schemaFlags.result, "result", false, "print the call result schema")
}

func runSchema(cmd *cobra.Command, args []string) error {
	out := &cli.JSONFormatter{Indent: true}
	if schemaFlags.result {
		return out.FormatTo(cmd.OutOrStdout(), schemagen.ResultSchema())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if schemaFlags.tools != "" {
		cfg.Tools.File = schemaFlags.tools
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, appOptions{memoryFallback: true})
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.loadTools(cfg.Tools.File); err != nil {
		return cli.NewCommandError("schema", err)
	}

	if len(args) == 1 {
		t, err := a.registry.Get(args[0])
		if err != nil {
			return cli.NewCommandError("schema", err)
		}
		s, err := schemagen.InputSchemaJSON(t)
		if err != nil {
			return cli.NewCommandError("schema", err)
		}
		return out.FormatTo(cmd.OutOrStdout(), s)
	}

	all := make(map[string]json.RawMessage, a.registry.Len())
	for _, t := range a.registry.List() {
		s, err := schemagen.InputSchemaJSON(t)
		if err != nil {
			return cli.NewCommandError("schema", err)
		}
		all[t.Name()] = s
	}
	return out.FormatTo(cmd.OutOrStdout(), all)
}
