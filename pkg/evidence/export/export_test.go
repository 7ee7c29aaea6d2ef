package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"mercator-hq/parley/pkg/evidence"
)

var _ evidence.Exporter = (*JSONExporter)(nil)
var _ evidence.Exporter = (*CSVExporter)(nil)

func sample() []*evidence.Record {
	called := time.Date(2026, 10, 4, 12, 0, 0, 0, time.UTC)
	return []*evidence.Record{
		{
			ID: "r1", CallID: "c1", Tool: "book_flight", Client: "ops", Status: "accepted",
			ArgsHash: "abc", Args: json.RawMessage(`{"departure":"Berlin"}`),
			Duration: 1500 * time.Microsecond, CalledAt: called, RecordedAt: called.Add(time.Millisecond),
		},
		{
			ID: "r2", CallID: "c2", Tool: "book_flight", Status: "rejected",
			InvalidFields: []string{"arrival", "date"}, Replayed: true,
			CalledAt: called.Add(time.Hour),
		},
	}
}

func TestJSONExporter(t *testing.T) {
	tests := []struct {
		name    string
		records []*evidence.Record
		pretty  bool
		wantLen int
	}{
		{"empty", nil, false, 0},
		{"single record stays an array", sample()[:1], false, 1},
		{"pretty", sample(), true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewJSONExporter(tt.pretty).Export(context.Background(), tt.records, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			var decoded []*evidence.Record
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
			}
			if len(decoded) != tt.wantLen {
				t.Errorf("decoded %d records, want %d", len(decoded), tt.wantLen)
			}
			if tt.pretty != strings.Contains(buf.String(), "\n  ") {
				t.Errorf("indentation mismatch for pretty=%v", tt.pretty)
			}
		})
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), sample(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if !reflect.DeepEqual(rows[0], header) {
		t.Errorf("header = %v", rows[0])
	}

	want := []string{
		"r1", "c1", "book_flight", "ops", "accepted", "", "false",
		"abc", `{"departure":"Berlin"}`, "", "1.500",
		"2026-10-04T12:00:00Z", "2026-10-04T12:00:00.001Z",
	}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row 1 = %v\nwant    %v", rows[1], want)
	}
	if rows[2][3] != "" || rows[2][5] != "arrival;date" || rows[2][6] != "true" || rows[2][12] != "" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

func TestExport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exporters := map[string]evidence.Exporter{
		"json": NewJSONExporter(false),
		"csv":  NewCSVExporter(true),
	}
	for name, e := range exporters {
		err := e.Export(ctx, sample(), &bytes.Buffer{})
		var eerr *evidence.ExportError
		if !errors.As(err, &eerr) || eerr.Format != name || !errors.Is(err, context.Canceled) {
			t.Errorf("%s: Export() error = %v", name, err)
		}
	}
}
