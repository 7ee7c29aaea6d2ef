package fieldspec

import (
	"fmt"
	"strings"
)

// CycleError reports cyclic requirements found when a Spec is finalized.
type CycleError struct {
	// Cycles lists each detected cycle in edge order.
	Cycles [][]string
}

// Error implements the error interface. Each cycle is rendered as a closed
// chain, e.g. "a → b → c → a".
func (e *CycleError) Error() string {
	chains := make([]string, 0, len(e.Cycles))
	for _, cycle := range e.Cycles {
		chains = append(chains, Chain(cycle))
	}
	return "cyclic field requirements: " + strings.Join(chains, "; ")
}

// Fields returns every field that takes part in a cycle, without duplicates,
// in detection order.
func (e *CycleError) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, cycle := range e.Cycles {
		for _, name := range cycle {
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
	}
	return fields
}

// Chain renders a cycle as "a → b → a".
func Chain(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " → ")
}

// SpecError reports an invalid field declaration.
type SpecError struct {
	// Field is the offending field name (may be empty).
	Field string

	// Message describes the problem.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	msg := "invalid field specification"
	if e.Field != "" {
		msg += fmt.Sprintf(" for %q", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *SpecError) Unwrap() error {
	return e.Cause
}
