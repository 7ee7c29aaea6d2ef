package rules

import "fmt"

// RuleError reports a rule that could not be constructed.
type RuleError struct {
	// Rule is the kind of rule ("normalize", "schema", "lookup", "check").
	Rule string

	// Message describes the problem.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s rule: %s: %v", e.Rule, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s rule: %s", e.Rule, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuleError) Unwrap() error {
	return e.Cause
}

func must(step Step, err error) Step {
	if err != nil {
		panic(err)
	}
	return step
}
