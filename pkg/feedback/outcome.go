package feedback

import (
	"encoding/json"
	"fmt"
)

// ValueHint lists acceptable values for a field.
type ValueHint struct {
	// Values are the acceptable values.
	Values []any

	// Exhaustive reports whether Values is the complete set of acceptable
	// values (allowedValues) or only a sample (suggestedValues).
	Exhaustive bool
}

// Outcome is the result of validating a single field.
type Outcome struct {
	// Valid reports whether the field's value was accepted.
	Valid bool

	// Problems are human-readable diagnostics for an invalid value.
	Problems []string

	// RequiresValidParameters names fields that must become valid before this
	// field can be evaluated.
	RequiresValidParameters []string

	// Hint optionally lists acceptable values.
	Hint *ValueHint

	normalizedValue any
	normalized      bool
}

// Valid returns a valid outcome without normalization.
func Valid() Outcome {
	return Outcome{Valid: true}
}

// Normalized returns a valid outcome carrying the normalized form of the value.
func Normalized(value any) Outcome {
	return Outcome{Valid: true, normalizedValue: value, normalized: true}
}

// Invalid returns an invalid outcome with the given problems.
func Invalid(problems ...string) Outcome {
	return Outcome{Problems: problems}
}

// Invalidf returns an invalid outcome with a single formatted problem.
func Invalidf(format string, args ...any) Outcome {
	return Invalid(fmt.Sprintf(format, args...))
}

// RequiresValid returns an invalid outcome naming fields that must become
// valid first.
func RequiresValid(fields ...string) Outcome {
	return Outcome{RequiresValidParameters: fields}
}

// WithAllowedValues attaches the exhaustive set of acceptable values.
func (o Outcome) WithAllowedValues(values ...any) Outcome {
	o.Hint = &ValueHint{Values: values, Exhaustive: true}
	return o
}

// WithSuggestedValues attaches a non-exhaustive sample of acceptable values.
func (o Outcome) WithSuggestedValues(values ...any) Outcome {
	o.Hint = &ValueHint{Values: values}
	return o
}

// WithProblems appends problems to the outcome.
func (o Outcome) WithProblems(problems ...string) Outcome {
	o.Problems = append(append([]string(nil), o.Problems...), problems...)
	return o
}

// NormalizedValue returns the normalized value and whether one is present.
func (o Outcome) NormalizedValue() (any, bool) {
	return o.normalizedValue, o.normalized
}

// WithoutNormalization returns a copy of the outcome with the normalized
// value removed.
func (o Outcome) WithoutNormalization() Outcome {
	o.normalizedValue = nil
	o.normalized = false
	return o
}

// Actionable reports whether the outcome is valid or explains its invalidity.
func (o Outcome) Actionable() bool {
	return o.Valid || len(o.Problems) > 0 || len(o.RequiresValidParameters) > 0
}

// Wire is the JSON representation of an Outcome.
type Wire struct {
	Valid                   bool     `json:"valid"`
	NormalizedValue         any      `json:"normalizedValue,omitempty"`
	Problems                []string `json:"problems,omitempty"`
	RequiresValidParameters []string `json:"requiresValidParameters,omitempty"`
	AllowedValues           *[]any   `json:"allowedValues,omitempty"`
	SuggestedValues         []any    `json:"suggestedValues,omitempty"`
}

// MarshalJSON encodes the outcome in its wire shape.
func (o Outcome) MarshalJSON() ([]byte, error) {
	w := Wire{
		Valid:                   o.Valid,
		Problems:                o.Problems,
		RequiresValidParameters: o.RequiresValidParameters,
	}
	if o.normalized {
		w.NormalizedValue = o.normalizedValue
	}
	if o.Hint != nil {
		if o.Hint.Exhaustive {
			// An exhaustive hint is emitted even when empty: nothing is acceptable.
			allowed := o.Hint.Values
			if allowed == nil {
				allowed = []any{}
			}
			w.AllowedValues = &allowed
		} else {
			w.SuggestedValues = o.Hint.Values
		}
	}

	// A normalized value of null must still be emitted.
	if o.normalized && o.normalizedValue == nil {
		type alias Wire
		return json.Marshal(struct {
			alias
			NormalizedValue any `json:"normalizedValue"`
		}{alias: alias(w)})
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.AllowedValues != nil && w.SuggestedValues != nil {
		return fmt.Errorf("outcome carries both allowedValues and suggestedValues")
	}

	*o = Outcome{
		Valid:                   w.Valid,
		Problems:                w.Problems,
		RequiresValidParameters: w.RequiresValidParameters,
	}
	if _, ok := raw["normalizedValue"]; ok {
		o.normalizedValue = w.NormalizedValue
		o.normalized = true
	}
	switch {
	case w.AllowedValues != nil:
		o.Hint = &ValueHint{Values: *w.AllowedValues, Exhaustive: true}
	case w.SuggestedValues != nil:
		o.Hint = &ValueHint{Values: w.SuggestedValues}
	}
	return nil
}
