package evidence

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// StatusError marks a call that ended with an error instead of a result.
// Accepted and rejected calls use the feedback status strings.
const StatusError = "error"

// Record describes one served tool call.
type Record struct {
	ID     string `json:"id"`      // UUID v4
	CallID string `json:"call_id"` // Correlates with logs and traces

	Tool          string   `json:"tool"`
	Client        string   `json:"client,omitempty"` // Authenticated SSE client
	Status        string   `json:"status"`           // accepted, rejected, error
	InvalidFields []string `json:"invalid_fields,omitempty"`
	Replayed      bool     `json:"replayed"`

	ArgsHash string          `json:"args_hash"`      // SHA-256 of canonical JSON
	Args     json.RawMessage `json:"args,omitempty"` // Only when recording arguments

	Error string `json:"error,omitempty"`

	Duration   time.Duration `json:"duration"`
	CalledAt   time.Time     `json:"called_at"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Query filters records. Zero values do not filter.
type Query struct {
	Tool   string     `json:"tool,omitempty"`
	Client string     `json:"client,omitempty"`
	Status string     `json:"status,omitempty"`
	Field  string     `json:"field,omitempty"` // Records where this field was invalid
	Since  *time.Time `json:"since,omitempty"` // Inclusive
	Until  *time.Time `json:"until,omitempty"` // Inclusive

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Oldest returns the oldest records first instead of the newest.
	Oldest bool `json:"oldest,omitempty"`
}

// Storage persists records. Implementations must be safe for concurrent use.
type Storage interface {
	Store(ctx context.Context, record *Record) error

	// Query returns matching records, newest first unless q.Oldest is set.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes matching records and returns how many were removed.
	// Limit and Offset are ignored.
	Delete(ctx context.Context, q *Query) (int64, error)

	Close() error
}

// Exporter writes records in some format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
