package storage

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/database"
	"mercator-hq/parley/pkg/evidence"
)

func newStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s, err := NewSQLiteStorage(ctx, db)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, 10, 4, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *SQLiteStorage) {
	t.Helper()
	records := []*evidence.Record{
		{ID: "r1", CallID: "c1", Tool: "book_flight", Status: "accepted", ArgsHash: "h1",
			Args: json.RawMessage(`{"departure":"LHR"}`), Duration: 3 * time.Millisecond, CalledAt: base},
		{ID: "r2", CallID: "c2", Tool: "book_flight", Status: "rejected", InvalidFields: []string{"arrival", "date"},
			CalledAt: base.Add(time.Hour)},
		{ID: "r3", CallID: "c3", Tool: "cancel", Client: "ops", Status: "rejected", InvalidFields: []string{"booking"},
			Replayed: true, CalledAt: base.Add(2 * time.Hour)},
		{ID: "r4", CallID: "c4", Tool: "cancel", Status: evidence.StatusError, Error: "lookup failed",
			CalledAt: base.Add(3 * time.Hour)},
	}
	for _, r := range records {
		r.RecordedAt = r.CalledAt.Add(time.Millisecond)
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) error = %v", r.ID, err)
		}
	}
}

func ids(records []*evidence.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	s := newStorage(t)
	seed(t, s)

	records, err := s.Query(context.Background(), &evidence.Query{Oldest: true, Limit: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.ID != "r1" || first.Status != "accepted" || first.ArgsHash != "h1" {
		t.Errorf("first = %+v", first)
	}
	if string(first.Args) != `{"departure":"LHR"}` {
		t.Errorf("Args = %s", first.Args)
	}
	if first.Duration != 3*time.Millisecond || !first.CalledAt.Equal(base) {
		t.Errorf("Duration = %v, CalledAt = %v", first.Duration, first.CalledAt)
	}
	if first.InvalidFields != nil {
		t.Errorf("InvalidFields = %v, want nil", first.InvalidFields)
	}

	if got := records[1].InvalidFields; !reflect.DeepEqual(got, []string{"arrival", "date"}) {
		t.Errorf("InvalidFields = %v", got)
	}
}

func TestSQLiteStorage_Query(t *testing.T) {
	s := newStorage(t)
	seed(t, s)
	since := base.Add(time.Hour)
	until := base.Add(2 * time.Hour)

	tests := []struct {
		name  string
		query evidence.Query
		want  []string
	}{
		{"newest first", evidence.Query{}, []string{"r4", "r3", "r2", "r1"}},
		{"by tool", evidence.Query{Tool: "cancel"}, []string{"r4", "r3"}},
		{"by status", evidence.Query{Status: "rejected"}, []string{"r3", "r2"}},
		{"by client", evidence.Query{Client: "ops"}, []string{"r3"}},
		{"by invalid field", evidence.Query{Field: "date"}, []string{"r2"}},
		{"time range", evidence.Query{Since: &since, Until: &until}, []string{"r3", "r2"}},
		{"offset", evidence.Query{Limit: 2, Offset: 1}, []string{"r3", "r2"}},
		{"no match", evidence.Query{Tool: "nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.Query(context.Background(), &tt.query)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if got := ids(records); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}

			n, err := s.Count(context.Background(), &evidence.Query{
				Tool: tt.query.Tool, Client: tt.query.Client, Status: tt.query.Status, Field: tt.query.Field,
				Since: tt.query.Since, Until: tt.query.Until,
			})
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if tt.query.Offset == 0 && n != int64(len(tt.want)) {
				t.Errorf("Count() = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestSQLiteStorage_Delete(t *testing.T) {
	s := newStorage(t)
	seed(t, s)
	ctx := context.Background()

	cutoff := base.Add(90 * time.Minute)
	n, err := s.Delete(ctx, &evidence.Query{Until: &cutoff})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	left, err := s.Query(ctx, &evidence.Query{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := ids(left); !reflect.DeepEqual(got, []string{"r4", "r3"}) {
		t.Errorf("left = %v", got)
	}
}

func TestSQLiteStorage_DuplicateID(t *testing.T) {
	s := newStorage(t)
	r := &evidence.Record{ID: "dup", CallID: "c", Tool: "t", Status: "accepted", CalledAt: base, RecordedAt: base}
	if err := s.Store(context.Background(), r); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	err := s.Store(context.Background(), r)
	var serr *evidence.StorageError
	if !errors.As(err, &serr) || serr.Operation != "store" {
		t.Errorf("second Store() error = %v, want StorageError on store", err)
	}
}

func TestNewSQLiteStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if _, err := NewSQLiteStorage(ctx, db); err != nil {
			t.Fatalf("NewSQLiteStorage() pass %d error = %v", i, err)
		}
	}
}
