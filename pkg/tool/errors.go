package tool

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a registry has no tool with the given name.
var ErrNotFound = errors.New("tool not found")

// DefinitionError reports an invalid tool definition.
type DefinitionError struct {
	Tool    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tool %q: %s: %v", e.Tool, e.Message, e.Cause)
	}
	return fmt.Sprintf("tool %q: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DefinitionError) Unwrap() error {
	return e.Cause
}

// DuplicateError is returned when registering a name twice.
type DuplicateError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}
