package rules

import (
	"context"
	"strings"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalization operations.
const (
	OpTrim           = "trim"
	OpLower          = "lower"
	OpUpper          = "upper"
	OpTitle          = "title"
	OpCollapseSpaces = "collapse_spaces"
)

var stringOps = map[string]func(string) string{
	OpTrim:           strings.TrimSpace,
	OpLower:          strings.ToLower,
	OpUpper:          strings.ToUpper,
	OpTitle:          titleCase,
	OpCollapseSpaces: func(s string) string { return strings.Join(strings.Fields(s), " ") },
}

// titleCase builds its Caser per call: a cases.Caser keeps state and must not
// be shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// Normalize returns a step applying string operations in order. Non-string
// values pass through unchanged.
func Normalize(ops ...string) (Step, error) {
	fns := make([]func(string) string, 0, len(ops))
	for _, op := range ops {
		fn, ok := stringOps[op]
		if !ok {
			return nil, &RuleError{Rule: "normalize", Message: "unknown operation " + op}
		}
		fns = append(fns, fn)
	}
	return StepFunc(func(_ context.Context, value any, _ fieldspec.Context) (feedback.Outcome, error) {
		s, ok := value.(string)
		if !ok {
			return feedback.Valid(), nil
		}
		for _, fn := range fns {
			s = fn(s)
		}
		return feedback.Normalized(s), nil
	}), nil
}

// MustNormalize is like Normalize but panics on an unknown operation.
func MustNormalize(ops ...string) Step {
	return must(Normalize(ops...))
}
