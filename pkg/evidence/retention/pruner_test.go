package retention

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/database"
	"mercator-hq/parley/pkg/evidence"
	"mercator-hq/parley/pkg/evidence/storage"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// newStorage stores one record per age in days, named "dN".
func newStorage(t *testing.T, ages ...int) evidence.Storage {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s, err := storage.NewSQLiteStorage(ctx, db)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for _, age := range ages {
		called := now.AddDate(0, 0, -age)
		r := &evidence.Record{
			ID:         fmt.Sprintf("d%d", age),
			CallID:     fmt.Sprintf("c%d", age),
			Tool:       "book_flight",
			Status:     "accepted",
			CalledAt:   called,
			RecordedAt: called,
		}
		if err := s.Store(ctx, r); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
	return s
}

func remaining(t *testing.T, s evidence.Storage) []string {
	t.Helper()
	records, err := s.Query(context.Background(), &evidence.Query{Oldest: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestPruner_Prune(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantDeleted int64
		wantLeft    []string
	}{
		{
			name:        "keep forever",
			config:      Config{},
			wantDeleted: 0,
			wantLeft:    []string{"d120", "d90", "d30", "d1"},
		},
		{
			name:        "by age keeps the boundary",
			config:      Config{Days: 90},
			wantDeleted: 1,
			wantLeft:    []string{"d90", "d30", "d1"},
		},
		{
			name:        "by count keeps the newest",
			config:      Config{MaxRecords: 2},
			wantDeleted: 2,
			wantLeft:    []string{"d30", "d1"},
		},
		{
			name:        "age then count",
			config:      Config{Days: 60, MaxRecords: 1},
			wantDeleted: 3,
			wantLeft:    []string{"d1"},
		},
		{
			name:        "count within limit",
			config:      Config{MaxRecords: 10},
			wantDeleted: 0,
			wantLeft:    []string{"d120", "d90", "d30", "d1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorage(t, 120, 90, 30, 1)
			p := NewPruner(s, tt.config, nil)
			p.now = func() time.Time { return now }

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("Prune() deleted %d, want %d", deleted, tt.wantDeleted)
			}
			if got := remaining(t, s); !reflect.DeepEqual(got, tt.wantLeft) {
				t.Errorf("remaining = %v, want %v", got, tt.wantLeft)
			}
		})
	}
}

func TestPruner_StorageError(t *testing.T) {
	s := newStorage(t, 120)
	s.Close()

	p := NewPruner(s, Config{Days: 30}, nil)
	_, err := p.Prune(context.Background())

	var rerr *evidence.RetentionError
	if !errors.As(err, &rerr) || rerr.Policy != "age" {
		t.Errorf("Prune() error = %v, want age RetentionError", err)
	}
}
