package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mercator-hq/parley/pkg/evidence"
	"mercator-hq/parley/pkg/telemetry/logging"
)

const backend = "sqlite"

// defaultLimit caps queries that do not set a limit.
const defaultLimit = 100

// SQLiteStorage implements evidence.Storage on a database/sql handle opened
// with the modernc SQLite driver.
type SQLiteStorage struct {
	db     *sql.DB
	logger *logging.Logger
}

// Option configures a SQLiteStorage.
type Option func(*options)

type options struct {
	walMode bool
	logger  *logging.Logger
}

// WithWAL enables write-ahead logging. Use it for file databases.
func WithWAL() Option {
	return func(o *options) { o.walMode = true }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewSQLiteStorage creates the schema on db and returns a storage that
// owns db: Close closes it.
func NewSQLiteStorage(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStorage, error) {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	s := &SQLiteStorage{db: db, logger: o.logger.With("component", "evidence.storage")}
	if err := s.initialize(ctx, o.walMode); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) initialize(ctx context.Context, walMode bool) error {
	if walMode {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError(backend, "enable_wal", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return evidence.NewStorageError(backend, "create_schema", err)
	}
	if _, err := s.db.ExecContext(ctx, InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError(backend, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return evidence.NewStorageError(backend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError(backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("evidence schema ready", "version", version)
	return nil
}

// Store inserts a record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	fields := record.InvalidFields
	if fields == nil {
		fields = []string{}
	}
	invalid, err := json.Marshal(fields)
	if err != nil {
		return evidence.NewStorageError(backend, "store", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evidence (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.CallID,
		record.Tool, record.Client, record.Status, string(invalid), record.Replayed,
		record.ArgsHash, nullString(string(record.Args)),
		nullString(record.Error),
		int64(record.Duration), record.CalledAt.UnixNano(), record.RecordedAt.UnixNano(),
	)
	if err != nil {
		return evidence.NewStorageError(backend, "store", err)
	}
	return nil
}

// Query returns matching records.
func (s *SQLiteStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	if q == nil {
		q = &evidence.Query{}
	}
	where, args := buildWhereClause(q)

	order := "DESC"
	if q.Oldest {
		order = "ASC"
	}
	limit := defaultLimit
	if q.Limit > 0 {
		limit = q.Limit
	}

	stmt := "SELECT " + columns + " FROM evidence" + where +
		fmt.Sprintf(" ORDER BY called_at_ns %s, id %s LIMIT %d", order, order, limit)
	if q.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, evidence.NewStorageError(backend, "query", err)
	}
	defer rows.Close()

	records := []*evidence.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError(backend, "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError(backend, "query", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence"+where, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError(backend, "count", err)
	}
	return count, nil
}

// Delete removes matching records.
func (s *SQLiteStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	where, args := buildWhereClause(q)

	result, err := s.db.ExecContext(ctx, "DELETE FROM evidence"+where, args...)
	if err != nil {
		return 0, evidence.NewStorageError(backend, "delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError(backend, "delete", err)
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError(backend, "close", err)
	}
	return nil
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(q *evidence.Query) (string, []any) {
	if q == nil {
		return "", nil
	}
	var conditions []string
	var args []any

	if q.Since != nil {
		conditions = append(conditions, "called_at_ns >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if q.Until != nil {
		conditions = append(conditions, "called_at_ns <= ?")
		args = append(args, q.Until.UnixNano())
	}
	if q.Tool != "" {
		conditions = append(conditions, "tool = ?")
		args = append(args, q.Tool)
	}
	if q.Client != "" {
		conditions = append(conditions, "client = ?")
		args = append(args, q.Client)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.Field != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(evidence.invalid_fields) WHERE json_each.value = ?)")
		args = append(args, q.Field)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*evidence.Record, error) {
	var (
		record                 evidence.Record
		invalid                string
		args, errText          sql.NullString
		duration, called, recd int64
	)
	err := rows.Scan(
		&record.ID, &record.CallID,
		&record.Tool, &record.Client, &record.Status, &invalid, &record.Replayed,
		&record.ArgsHash, &args,
		&errText,
		&duration, &called, &recd,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(invalid), &record.InvalidFields); err != nil {
		return nil, fmt.Errorf("invalid_fields of %s: %w", record.ID, err)
	}
	if len(record.InvalidFields) == 0 {
		record.InvalidFields = nil
	}
	if args.Valid {
		record.Args = json.RawMessage(args.String)
	}
	record.Error = errText.String
	record.Duration = time.Duration(duration)
	record.CalledAt = time.Unix(0, called).UTC()
	record.RecordedAt = time.Unix(0, recd).UTC()
	return &record, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
