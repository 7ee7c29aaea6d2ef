package fieldspec

import (
	"context"

	"mercator-hq/parley/pkg/feedback"
)

// ValidateFunc validates a single field. value is nil when the field is absent
// from the input. fctx holds the values the field may consult. A returned error
// aborts the whole call and is reported to the caller unchanged.
type ValidateFunc func(ctx context.Context, value any, fctx Context) (feedback.Outcome, error)

// FieldSpec declares one dynamic field.
type FieldSpec struct {
	// Requires lists the fields that must be valid before this field's
	// validator may run, in the order they are reported when missing.
	Requires []string

	// InfluencedBy lists fields the validator consults when known. They never
	// block evaluation and only affect ordering under the fewest-hints policy.
	InfluencedBy []string

	// Description is a human-readable explanation of the field.
	Description string

	// Validate checks the field. A nil Validate accepts any value.
	Validate ValidateFunc
}

func acceptAll(context.Context, any, Context) (feedback.Outcome, error) {
	return feedback.Valid(), nil
}
