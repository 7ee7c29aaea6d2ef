package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/database"
	"mercator-hq/parley/pkg/fieldspec"
	"mercator-hq/parley/pkg/fieldspec/graph"
	"mercator-hq/parley/pkg/specfile"

	"github.com/spf13/cobra"
)

var lintFlags struct {
	tools  string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check a tools file",
	Long: `Check a tools file without serving it.

For every tool, lint reports:
  - YAML and structure errors
  - cyclic field requirements, with each cycle spelled out
  - rule errors (unknown normalizations, bad schemas, CEL compile errors)
  - the order in which fields are validated

Requirements on names that are neither static nor dynamic fields are
reported as warnings: such names must be passed as undeclared arguments.

Examples:
  # Lint the configured tools file
  parley lint

  # Lint a specific file, failing on warnings
  parley lint --tools tools.yaml --strict

  # JSON output for CI/CD
  parley lint --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.tools, "tools", "t", "", "tools file (default from config)")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintReport is the result of linting one tools file.
type LintReport struct {
	File  string       `json:"file"`
	Valid bool         `json:"valid"`
	Error string       `json:"error,omitempty"`
	Tools []ToolReport `json:"tools,omitempty"`
}

// ToolReport is the lint result for one tool.
type ToolReport struct {
	Name     string   `json:"name"`
	Valid    bool     `json:"valid"`
	Order    []string `json:"order,omitempty"`
	Static   []string `json:"static,omitempty"`
	Cycles   []string `json:"cycles,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := cli.NewFormatter(cli.OutputFormat(lintFlags.format))
	if err != nil {
		return cli.NewConfigError("--format", err.Error(), nil)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := lintFlags.tools
	if path == "" {
		path = cfg.Tools.File
	}
	tieBreak, err := graph.ParseTieBreak(cfg.Validation.TieBreak)
	if err != nil {
		return cli.NewConfigError("validation.tie_break", "invalid value", err)
	}

	ctx := context.Background()
	dbCfg := cfg.Database
	if dbCfg.DSN == "" {
		dbCfg.DSN = ":memory:"
	}
	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}
	defer db.Close()

	report := lintFile(path, specfile.Deps{DB: db, TieBreak: tieBreak})
	if err := format.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if !report.Valid {
		return cli.NewCommandError("lint", errors.New("validation failed"))
	}
	if lintFlags.strict && report.warnings() > 0 {
		return cli.NewCommandError("lint", errors.New("warnings found in strict mode"))
	}
	return nil
}

func lintFile(path string, deps specfile.Deps) LintReport {
	report := LintReport{File: path, Valid: true}

	defs, err := specfile.Load(path)
	if err != nil {
		report.Valid = false
		report.Error = err.Error()
		return report
	}

	for _, def := range defs {
		tr := lintTool(def, deps)
		if !tr.Valid {
			report.Valid = false
		}
		report.Tools = append(report.Tools, tr)
	}
	return report
}

func lintTool(def specfile.Definition, deps specfile.Deps) ToolReport {
	tr := ToolReport{Name: def.Name, Valid: true}
	for name := range def.Static {
		tr.Static = append(tr.Static, name)
	}
	sort.Strings(tr.Static)

	for _, name := range sortedKeys(def.Fields) {
		for _, req := range def.Fields[name].Requires {
			_, dynamic := def.Fields[req]
			if !dynamic && !slices.Contains(tr.Static, req) {
				tr.Warnings = append(tr.Warnings,
					fmt.Sprintf("field %q requires %q, which is not declared", name, req))
			}
		}
	}

	t, err := def.Build(deps)
	if err != nil {
		tr.Valid = false
		var cycles *fieldspec.CycleError
		if errors.As(err, &cycles) {
			for _, c := range cycles.Cycles {
				tr.Cycles = append(tr.Cycles, fieldspec.Chain(c))
			}
		} else {
			tr.Errors = append(tr.Errors, err.Error())
		}
		return tr
	}
	tr.Order = t.Spec().Order()
	return tr
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r LintReport) warnings() int {
	n := 0
	for _, t := range r.Tools {
		n += len(t.Warnings)
	}
	return n
}

// Text renders the report for terminals.
func (r LintReport) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Linting %s...\n", r.File)
	if r.Error != "" {
		fmt.Fprintf(&sb, "✗ Error: %s\n", r.Error)
		return strings.TrimRight(sb.String(), "\n")
	}

	errorsFound := 0
	for _, t := range r.Tools {
		sb.WriteString("\n")
		if t.Valid {
			fmt.Fprintf(&sb, "✓ %s\n", t.Name)
			fmt.Fprintf(&sb, "  order: %s\n", strings.Join(t.Order, " → "))
			if len(t.Static) > 0 {
				fmt.Fprintf(&sb, "  static: %s\n", strings.Join(t.Static, ", "))
			}
		} else {
			fmt.Fprintf(&sb, "✗ %s\n", t.Name)
		}
		for _, c := range t.Cycles {
			fmt.Fprintf(&sb, "  ✗ cycle: %s\n", c)
			errorsFound++
		}
		for _, e := range t.Errors {
			fmt.Fprintf(&sb, "  ✗ %s\n", e)
			errorsFound++
		}
		for _, w := range t.Warnings {
			fmt.Fprintf(&sb, "  ⚠  %s\n", w)
		}
	}

	sb.WriteString("\nSummary:\n")
	fmt.Fprintf(&sb, "  %d tool(s), %d error(s), %d warning(s)", len(r.Tools), errorsFound, r.warnings())
	return sb.String()
}
