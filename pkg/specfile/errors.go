package specfile

import (
	"fmt"
	"strings"
)

// LoadError reports a tools file that could not be read.
type LoadError struct {
	// FilePath is the file that failed to load.
	FilePath string

	// Message describes the error.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load tools file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load tools file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError reports a tools file that is not valid YAML or does not match
// the expected structure.
type ParseError struct {
	// FilePath is the file that failed to parse. Empty for in-memory input.
	FilePath string

	// Line is the 1-indexed line of the error, zero if unknown.
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying parser error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	where := "tools file"
	if e.FilePath != "" {
		where = fmt.Sprintf("%q", e.FilePath)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", where, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", where, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// BuildError reports a definition that could not be turned into a tool.
type BuildError struct {
	// Tool is the tool's name.
	Tool string

	// Field is the offending field, empty for tool-level errors.
	Field string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString("tool ")
	sb.WriteString(e.Tool)
	if e.Field != "" {
		sb.WriteString(" field ")
		sb.WriteString(e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Cause.Error())
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface.
func (e *BuildError) Unwrap() error {
	return e.Cause
}
