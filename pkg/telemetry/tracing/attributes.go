package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanCall  = "parley.call"
	SpanField = "parley.field"
)

// Attribute keys use the "parley.*" namespace.
const (
	AttrTool     = "parley.tool"
	AttrCallID   = "parley.call_id"
	AttrStatus   = "parley.status"
	AttrField    = "parley.field"
	AttrOutcome  = "parley.outcome"
	AttrProblems = "parley.problems"
	AttrMissing  = "parley.missing"
	AttrReplayed = "parley.replayed"
	AttrInvalid  = "parley.invalid_fields"

	AttrErrorMessage = "error.message"
)

// CallAttributes returns the span start attributes for a tool call.
func CallAttributes(tool, callID string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrTool, tool),
		attribute.String(AttrCallID, callID),
	)
}

// SetCallResult records the call status and the fields that were rejected.
func SetCallResult(span trace.Span, status string, invalid []string) {
	span.SetAttributes(attribute.String(AttrStatus, status))
	if len(invalid) > 0 {
		span.SetAttributes(attribute.StringSlice(AttrInvalid, invalid))
	}
}

// SetFieldOutcome records a validator's verdict on its field span.
func SetFieldOutcome(span trace.Span, outcome string, problems int) {
	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrProblems, problems),
	)
}

// SetFieldUnmet records that a field was skipped for missing requirements.
func SetFieldUnmet(span trace.Span, missing []string) {
	span.SetAttributes(
		attribute.String(AttrOutcome, "unmet"),
		attribute.StringSlice(AttrMissing, missing),
	)
}

// SetReplayed marks a call answered from the idempotency cache.
func SetReplayed(span trace.Span) {
	span.SetAttributes(attribute.Bool(AttrReplayed, true))
}
