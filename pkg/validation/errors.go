package validation

import (
	"fmt"

	"mercator-hq/parley/pkg/feedback"
)

// ValidatorError is returned when a field validator fails with an error. The
// engine does not translate it into feedback; callers decide how to surface it.
type ValidatorError struct {
	// Field is the field whose validator failed.
	Field string

	// Results holds the outcomes recorded before the failure.
	Results map[string]feedback.Outcome

	// Err is the validator's error.
	Err error
}

// Error implements the error interface.
func (e *ValidatorError) Error() string {
	return fmt.Sprintf("validator for field %q failed: %v", e.Field, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ValidatorError) Unwrap() error {
	return e.Err
}
