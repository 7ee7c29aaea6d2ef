package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/evidence"
)

// recordCalls serves three calls, one of them a replay, through an app with
// evidence enabled and returns the evidence database path.
func recordCalls(t *testing.T) string {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "evidence.db")
	t.Setenv("PARLEY_EVIDENCE_ENABLED", "true")
	t.Setenv("PARLEY_EVIDENCE_DSN", dsn)
	t.Setenv("PARLEY_EVIDENCE_RECORD_ARGS", "true")
	t.Setenv("PARLEY_VALIDATION_IDEMPOTENCY_CACHE_SIZE", "16")

	cfgFile = "testdata/parley.yaml"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, appOptions{record: true})
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if err := a.loadTools(cfg.Tools.File); err != nil {
		a.close(ctx)
		t.Fatalf("loadTools() error = %v", err)
	}

	calls := []map[string]any{
		{"passengers": 2.0, "departure": "lhr", "arrival": "jfk"},
		{"passengers": 1.0, "departure": "LHR", "arrival": "LAX"},
		{"arrival": "jfk", "departure": "lhr", "passengers": 2.0},
	}
	for _, args := range calls {
		if _, err := a.registry.Invoke(ctx, "book_flight", args); err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
	}
	a.close(ctx)
	return dsn
}

func TestEvidence_Query(t *testing.T) {
	recordCalls(t)

	out, err := execute(t, "", "evidence", "query", "--oldest", "--format", "json")
	if err != nil {
		t.Fatalf("evidence query failed: %v\n%s", err, out)
	}

	var records []*evidence.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first, rejected, replay := records[0], records[1], records[2]
	if first.Status != "accepted" || first.Replayed || first.Tool != "book_flight" {
		t.Errorf("first = %+v", first)
	}
	var args bytes.Buffer
	if err := json.Compact(&args, first.Args); err != nil {
		t.Fatalf("Args is not JSON: %v", err)
	}
	if args.String() != `{"arrival":"jfk","departure":"lhr","passengers":2}` {
		t.Errorf("Args = %s", args.String())
	}
	if rejected.Status != "rejected" || !reflect.DeepEqual(rejected.InvalidFields, []string{"arrival"}) {
		t.Errorf("rejected = %+v", rejected)
	}
	if !replay.Replayed || replay.ArgsHash != first.ArgsHash {
		t.Errorf("replay = %+v, want a replay of the first call", replay)
	}
}

func TestEvidence_QueryFilters(t *testing.T) {
	recordCalls(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"by status", []string{"--status", "rejected"}, 1},
		{"by field", []string{"--field", "arrival"}, 1},
		{"by tool", []string{"--tool", "cancel_booking"}, 0},
		{"recent", []string{"--since", "1h"}, 3},
		{"paged", []string{"--limit", "2", "--offset", "2"}, 1},
		{"past range", []string{"--time-range", "2020-01-01T00:00:00Z/2020-01-02T00:00:00Z"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"evidence", "query", "--format", "json"}, tt.args...)
			out, err := execute(t, "", args...)
			if err != nil {
				t.Fatalf("evidence query failed: %v\n%s", err, out)
			}
			var records []*evidence.Record
			if err := json.Unmarshal([]byte(out), &records); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if len(records) != tt.want {
				t.Errorf("got %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestEvidence_QueryText(t *testing.T) {
	recordCalls(t)

	out, err := execute(t, "", "evidence", "query")
	if err != nil {
		t.Fatalf("evidence query failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Records: 3", "book_flight  rejected", "invalid: arrival", "(replayed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvidence_QueryCSVFile(t *testing.T) {
	recordCalls(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	if _, err := execute(t, "", "evidence", "query", "--format", "csv", "-o", path); err != nil {
		t.Fatalf("evidence query failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "id" {
		t.Errorf("rows = %v", rows)
	}
}

func TestEvidence_Report(t *testing.T) {
	recordCalls(t)

	out, err := execute(t, "", "evidence", "report", "--format", "json")
	if err != nil {
		t.Fatalf("evidence report failed: %v\n%s", err, out)
	}

	var report EvidenceReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Total != 3 || report.Replayed != 1 || report.ByStatus["accepted"] != 2 || report.ByStatus["rejected"] != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Tools) != 1 || !reflect.DeepEqual(report.Tools[0].InvalidFields, []FieldCount{{Field: "arrival", Count: 1}}) {
		t.Errorf("tools = %+v", report.Tools)
	}

	out, err = execute(t, "", "evidence", "report")
	if err != nil {
		t.Fatalf("evidence report failed: %v", err)
	}
	if !strings.Contains(out, "3 call(s): 2 accepted, 1 rejected, 0 error, 1 replayed") {
		t.Errorf("text report:\n%s", out)
	}
}

func TestEvidence_Prune(t *testing.T) {
	recordCalls(t)

	out, err := execute(t, "", "evidence", "prune", "--dry-run")
	if err != nil || !strings.Contains(out, "3 record(s), retention 90 day(s)") {
		t.Fatalf("dry run = %q, %v", out, err)
	}

	out, err = execute(t, "", "evidence", "prune", "--max-records", "1")
	if err != nil {
		t.Fatalf("evidence prune failed: %v", err)
	}
	if !strings.Contains(out, "Pruned 2 record(s)") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "", "evidence", "query", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var records []*evidence.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil || len(records) != 1 || !records[0].Replayed {
		t.Errorf("remaining = %s, %v", out, err)
	}
}

func TestEvidence_Errors(t *testing.T) {
	t.Setenv("PARLEY_EVIDENCE_DSN", filepath.Join(t.TempDir(), "missing.db"))

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing database", []string{"evidence", "query"}, cli.ExitFailure},
		{"bad status", []string{"evidence", "query", "--status", "maybe"}, cli.ExitConfig},
		{"bad format", []string{"evidence", "query", "--format", "xml"}, cli.ExitConfig},
		{"bad range", []string{"evidence", "query", "--time-range", "yesterday"}, cli.ExitConfig},
		{"range and since", []string{"evidence", "report", "--since", "1h", "--time-range", "2026-01-01T00:00:00Z/2026-01-02T00:00:00Z"}, cli.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := cli.ExitCode(err); code != tt.code {
				t.Errorf("exit code = %d, want %d (%v)", code, tt.code, err)
			}
		})
	}
}
