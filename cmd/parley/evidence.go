package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/database"
	"mercator-hq/parley/pkg/evidence"
	"mercator-hq/parley/pkg/evidence/export"
	"mercator-hq/parley/pkg/evidence/retention"
	"mercator-hq/parley/pkg/evidence/storage"
	"mercator-hq/parley/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var evidenceFlags struct {
	timeRange  string
	since      time.Duration
	tool       string
	client     string
	status     string
	field      string
	limit      int
	scan       int
	offset     int
	oldest     bool
	format     string
	output     string
	days       int
	maxRecords int64
	dryRun     bool
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query recorded tool calls",
	Long: `Query, summarize and prune the evidence journal.

When evidence.enabled is set, "parley serve" writes one record per tool call
to the evidence database: the tool, the verdict, the invalid fields, and a
hash of the canonical arguments.

Subcommands:
  query   - List records matching filters
  report  - Summarize verdicts and the fields callers get wrong most
  prune   - Apply the retention policy now

Examples:
  # Rejected calls from the last 24 hours
  parley evidence query --status rejected --since 24h

  # Calls where the arrival field was invalid, as CSV
  parley evidence query --field arrival --format csv -o arrival.csv`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List evidence records",
	Long: `List evidence records, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

Examples:
  parley evidence query --tool book_flight --limit 20
  parley evidence query --time-range "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z" --format json`,
	Args: cobra.NoArgs,
	RunE: runEvidenceQuery,
}

var evidenceReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize evidence records",
	Args:  cobra.NoArgs,
	RunE:  runEvidenceReport,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	Long: `Delete records older than evidence.retention.days, then the oldest records
beyond evidence.retention.max_records. Flags override the configured limits.

Examples:
  parley evidence prune
  parley evidence prune --days 30 --max-records 100000`,
	Args: cobra.NoArgs,
	RunE: runEvidencePrune,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceReportCmd, evidencePruneCmd)

	for _, cmd := range []*cobra.Command{evidenceQueryCmd, evidenceReportCmd} {
		cmd.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		cmd.Flags().DurationVar(&evidenceFlags.since, "since", 0, "only records from the last duration, e.g. 24h")
		cmd.Flags().StringVar(&evidenceFlags.tool, "tool", "", "filter by tool name")
		cmd.Flags().StringVar(&evidenceFlags.client, "client", "", "filter by authenticated client")
		cmd.Flags().StringVar(&evidenceFlags.status, "status", "", "filter by status (accepted, rejected, error)")
		cmd.Flags().StringVar(&evidenceFlags.field, "field", "", "filter by invalid field")
		cmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 100, "max results")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().BoolVar(&evidenceFlags.oldest, "oldest", false, "oldest records first")
	evidenceReportCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json")
	evidenceReportCmd.Flags().IntVar(&evidenceFlags.scan, "limit", 10000, "max records to summarize")

	evidencePruneCmd.Flags().IntVar(&evidenceFlags.days, "days", -1, "override retention days (0 keeps forever)")
	evidencePruneCmd.Flags().Int64Var(&evidenceFlags.maxRecords, "max-records", -1, "override max records (0 is unlimited)")
	evidencePruneCmd.Flags().BoolVar(&evidenceFlags.dryRun, "dry-run", false, "report the policy without deleting")
}

// openEvidence opens the evidence database and prepares its schema.
func openEvidence(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*storage.SQLiteStorage, error) {
	db, err := database.Open(ctx, config.DatabaseConfig{
		DSN:         cfg.Evidence.DSN,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open evidence database: %w", err)
	}
	if db == nil {
		return nil, cli.NewConfigError("evidence.dsn", "is required", nil)
	}

	opts := []storage.Option{storage.WithLogger(logger)}
	if !database.IsMemory(cfg.Evidence.DSN) {
		opts = append(opts, storage.WithWAL())
	}
	s, err := storage.NewSQLiteStorage(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// evidenceStore opens the configured evidence database for the evidence
// subcommands. A file database must already exist.
func evidenceStore(ctx context.Context) (*config.Config, *storage.SQLiteStorage, *logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return nil, nil, nil, cli.NewConfigError("telemetry.logging", "invalid logging config", err)
	}

	dsn := cfg.Evidence.DSN
	if !database.IsMemory(dsn) {
		path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
		if _, err := os.Stat(path); err != nil {
			return nil, nil, nil, cli.NewCommandError("evidence", fmt.Errorf("no evidence database at %s: %w", path, err))
		}
	}

	s, err := openEvidence(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, cli.NewCommandError("evidence", err)
	}
	return cfg, s, logger, nil
}

// evidenceQuery builds a query from the filter flags.
func evidenceQuery(now time.Time) (*evidence.Query, error) {
	q := &evidence.Query{
		Tool:   evidenceFlags.tool,
		Client: evidenceFlags.client,
		Status: evidenceFlags.status,
		Field:  evidenceFlags.field,
		Limit:  evidenceFlags.limit,
		Offset: evidenceFlags.offset,
		Oldest: evidenceFlags.oldest,
	}

	switch q.Status {
	case "", "accepted", "rejected", evidence.StatusError:
	default:
		return nil, cli.NewConfigError("status", fmt.Sprintf("unknown status %q (accepted, rejected, error)", q.Status), nil)
	}

	if evidenceFlags.timeRange != "" && evidenceFlags.since > 0 {
		return nil, cli.NewConfigError("time-range", "cannot be combined with --since", nil)
	}
	if evidenceFlags.since > 0 {
		since := now.Add(-evidenceFlags.since)
		q.Since = &since
	}
	if evidenceFlags.timeRange != "" {
		start, end, ok := strings.Cut(evidenceFlags.timeRange, "/")
		if !ok {
			return nil, cli.NewConfigError("time-range", "invalid format (expected: start/end)", nil)
		}
		startTime, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, cli.NewConfigError("time-range", "invalid start time", err)
		}
		endTime, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return nil, cli.NewConfigError("time-range", "invalid end time", err)
		}
		if startTime.After(endTime) {
			return nil, cli.NewConfigError("time-range", "start must not be after end", nil)
		}
		q.Since, q.Until = &startTime, &endTime
	}
	return q, nil
}

// evidenceOutput returns the destination for results and a func to close it.
func evidenceOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if evidenceFlags.output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(evidenceFlags.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func runEvidenceQuery(cmd *cobra.Command, args []string) error {
	var exporter evidence.Exporter
	switch evidenceFlags.format {
	case "text":
	case "json":
		exporter = export.NewJSONExporter(true)
	case "csv":
		exporter = export.NewCSVExporter(true)
	default:
		return cli.NewConfigError("format", fmt.Sprintf("unknown format %q (text, json, csv)", evidenceFlags.format), nil)
	}

	q, err := evidenceQuery(time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	_, store, _, err := evidenceStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	w, closeOut, err := evidenceOutput(cmd)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	if exporter != nil {
		err = exporter.Export(ctx, records, w)
	} else {
		err = writeEvidenceText(w, records, q)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	return nil
}

func writeEvidenceText(w io.Writer, records []*evidence.Record, q *evidence.Query) error {
	var b strings.Builder
	if q.Since != nil {
		end := "now"
		if q.Until != nil {
			end = q.Until.Format(time.RFC3339)
		}
		fmt.Fprintf(&b, "Time range: %s to %s\n", q.Since.Format(time.RFC3339), end)
	}
	fmt.Fprintf(&b, "Records: %d\n", len(records))

	if len(records) == 0 {
		b.WriteString("\nNo records found.\n")
	}
	for _, r := range records {
		fmt.Fprintf(&b, "\n%s  %s  %s", r.CalledAt.Local().Format(time.RFC3339), r.Tool, r.Status)
		if r.Replayed {
			b.WriteString(" (replayed)")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  call: %s  duration: %s\n", r.CallID, r.Duration)
		if r.Client != "" {
			fmt.Fprintf(&b, "  client: %s\n", r.Client)
		}
		if len(r.InvalidFields) > 0 {
			fmt.Fprintf(&b, "  invalid: %s\n", strings.Join(r.InvalidFields, ", "))
		}
		if r.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", r.Error)
		}
		if len(r.Args) > 0 {
			fmt.Fprintf(&b, "  args: %s\n", r.Args)
		}
	}
	if q.Limit > 0 && len(records) == q.Limit {
		b.WriteString("\nUse --limit and --offset for pagination.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// EvidenceReport summarizes a set of records.
type EvidenceReport struct {
	Total    int                  `json:"total"`
	ByStatus map[string]int       `json:"by_status"`
	Replayed int                  `json:"replayed"`
	Tools    []ToolEvidenceReport `json:"tools"`
}

// ToolEvidenceReport summarizes the records of one tool.
type ToolEvidenceReport struct {
	Tool          string         `json:"tool"`
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	InvalidFields []FieldCount   `json:"invalid_fields,omitempty"`
}

// FieldCount is how often a field was invalid.
type FieldCount struct {
	Field string `json:"field"`
	Count int    `json:"count"`
}

func summarize(records []*evidence.Record) EvidenceReport {
	report := EvidenceReport{ByStatus: map[string]int{}}
	tools := map[string]*ToolEvidenceReport{}
	fields := map[string]map[string]int{}

	for _, r := range records {
		report.Total++
		report.ByStatus[r.Status]++
		if r.Replayed {
			report.Replayed++
		}

		t, ok := tools[r.Tool]
		if !ok {
			t = &ToolEvidenceReport{Tool: r.Tool, ByStatus: map[string]int{}}
			tools[r.Tool] = t
			fields[r.Tool] = map[string]int{}
		}
		t.Total++
		t.ByStatus[r.Status]++
		for _, f := range r.InvalidFields {
			fields[r.Tool][f]++
		}
	}

	for _, name := range sortedKeys(tools) {
		t := tools[name]
		for f, n := range fields[name] {
			t.InvalidFields = append(t.InvalidFields, FieldCount{Field: f, Count: n})
		}
		sort.Slice(t.InvalidFields, func(i, j int) bool {
			a, b := t.InvalidFields[i], t.InvalidFields[j]
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.Field < b.Field
		})
		report.Tools = append(report.Tools, *t)
	}
	return report
}

// Text renders the report for terminals.
func (r EvidenceReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d call(s): %s", r.Total, statusLine(r.ByStatus))
	if r.Replayed > 0 {
		fmt.Fprintf(&b, ", %d replayed", r.Replayed)
	}
	b.WriteString("\n")
	for _, t := range r.Tools {
		fmt.Fprintf(&b, "\n%s: %d call(s): %s\n", t.Tool, t.Total, statusLine(t.ByStatus))
		for _, f := range t.InvalidFields {
			fmt.Fprintf(&b, "  %-20s %d\n", f.Field, f.Count)
		}
	}
	return b.String()
}

func statusLine(counts map[string]int) string {
	return fmt.Sprintf("%d accepted, %d rejected, %d error",
		counts["accepted"], counts["rejected"], counts[evidence.StatusError])
}

func runEvidenceReport(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(evidenceFlags.format))
	if err != nil {
		return cli.NewConfigError("format", err.Error(), nil)
	}

	q, err := evidenceQuery(time.Now())
	if err != nil {
		return err
	}
	q.Limit, q.Offset, q.Oldest = evidenceFlags.scan, 0, false

	ctx := cmd.Context()
	_, store, _, err := evidenceStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	w, closeOut, err := evidenceOutput(cmd)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	err = formatter.FormatTo(w, summarize(records))
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	return nil
}

func runEvidencePrune(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	cfg, store, logger, err := evidenceStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	policy := retention.Config{
		Days:       cfg.Evidence.Retention.Days,
		MaxRecords: cfg.Evidence.Retention.MaxRecords,
	}
	if evidenceFlags.days >= 0 {
		policy.Days = evidenceFlags.days
	}
	if evidenceFlags.maxRecords >= 0 {
		policy.MaxRecords = evidenceFlags.maxRecords
	}

	out := cmd.OutOrStdout()
	if evidenceFlags.dryRun {
		total, err := store.Count(ctx, &evidence.Query{})
		if err != nil {
			return cli.NewCommandError("evidence", err)
		}
		fmt.Fprintf(out, "%d record(s), retention %d day(s), max records %d\n", total, policy.Days, policy.MaxRecords)
		return nil
	}

	deleted, err := retention.NewPruner(store, policy, logger).Prune(ctx)
	if err != nil {
		var rerr *evidence.RetentionError
		if errors.As(err, &rerr) {
			return cli.NewCommandError("evidence", fmt.Errorf("%s policy: %w", rerr.Policy, rerr.Cause))
		}
		return cli.NewCommandError("evidence", err)
	}
	fmt.Fprintf(out, "✓ Pruned %d record(s)\n", deleted)
	return nil
}
