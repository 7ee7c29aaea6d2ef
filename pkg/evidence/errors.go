package evidence

import "fmt"

// StorageError is returned by storage backends.
type StorageError struct {
	Backend   string // "sqlite"
	Operation string // "store", "query", "delete", ...
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// RecorderError is returned when a record cannot be queued.
type RecorderError struct {
	RecordID string
	Cause    error
}

func (e *RecorderError) Error() string {
	return fmt.Sprintf("failed to record evidence %s: %v", e.RecordID, e.Cause)
}

func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a RecorderError.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}

// ExportError is returned by exporters.
type ExportError struct {
	Format string
	Count  int
	Cause  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to export %d record(s) as %s: %v", e.Count, e.Format, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates an ExportError.
func NewExportError(format string, count int, cause error) *ExportError {
	return &ExportError{Format: format, Count: count, Cause: cause}
}

// RetentionError is returned when pruning fails.
type RetentionError struct {
	Policy string // "age" or "count"
	Cause  error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [policy=%s]: %v", e.Policy, e.Cause)
}

func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a RetentionError.
func NewRetentionError(policy string, cause error) *RetentionError {
	return &RetentionError{Policy: policy, Cause: cause}
}
