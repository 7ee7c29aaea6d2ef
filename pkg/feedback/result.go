package feedback

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Status is the overall verdict of a validation call.
type Status string

const (
	// StatusAccepted means every field validated; Value holds the full record.
	StatusAccepted Status = "accepted"

	// StatusRejected means at least one field is invalid.
	StatusRejected Status = "rejected"
)

// CallResult is the outcome of one validation call.
type CallResult struct {
	Status Status `json:"status"`

	// Value is the resolved record (static and dynamic fields). Set only
	// when Status is StatusAccepted.
	Value map[string]any `json:"value,omitempty"`

	// ValidationResults holds the outcome of every processed field. Set
	// only when Status is StatusRejected.
	ValidationResults map[string]Outcome `json:"validationResults,omitempty"`
}

// Accepted returns an accepted result carrying value.
func Accepted(value map[string]any) *CallResult {
	if value == nil {
		value = map[string]any{}
	}
	return &CallResult{Status: StatusAccepted, Value: value}
}

// Rejected returns a rejected result carrying the per-field outcomes.
func Rejected(results map[string]Outcome) *CallResult {
	return &CallResult{Status: StatusRejected, ValidationResults: results}
}

// IsAccepted reports whether the call was accepted.
func (r *CallResult) IsAccepted() bool {
	return r != nil && r.Status == StatusAccepted
}

// InvalidFields returns the names of invalid fields, sorted.
func (r *CallResult) InvalidFields() []string {
	var names []string
	for name, outcome := range r.ValidationResults {
		if !outcome.Valid {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Summary renders a short human-readable description of the result.
func (r *CallResult) Summary() string {
	if r.IsAccepted() {
		return fmt.Sprintf("accepted (%d field(s))", len(r.Value))
	}

	var sb strings.Builder
	fields := r.InvalidFields()
	sb.WriteString(fmt.Sprintf("rejected: %d invalid field(s)", len(fields)))
	for _, name := range fields {
		outcome := r.ValidationResults[name]
		sb.WriteString("\n  - ")
		sb.WriteString(name)
		if len(outcome.Problems) > 0 {
			sb.WriteString(": ")
			sb.WriteString(strings.Join(outcome.Problems, "; "))
		}
		if len(outcome.RequiresValidParameters) > 0 {
			sb.WriteString(" (needs valid ")
			sb.WriteString(strings.Join(outcome.RequiresValidParameters, ", "))
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// MarshalJSON emits only the member that belongs to the status, so an
// accepted call with no fields still encodes "value":{}.
func (r CallResult) MarshalJSON() ([]byte, error) {
	if r.Status == StatusAccepted {
		value := r.Value
		if value == nil {
			value = map[string]any{}
		}
		return json.Marshal(struct {
			Status Status         `json:"status"`
			Value  map[string]any `json:"value"`
		}{r.Status, value})
	}

	results := r.ValidationResults
	if results == nil {
		results = map[string]Outcome{}
	}
	return json.Marshal(struct {
		Status            Status             `json:"status"`
		ValidationResults map[string]Outcome `json:"validationResults"`
	}{r.Status, results})
}

// JSON encodes the result in its wire shape.
func (r *CallResult) JSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode call result: %w", err)
	}
	return string(data), nil
}
