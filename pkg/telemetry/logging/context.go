package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// CallIDKey is the context key for tool call IDs.
	CallIDKey contextKey = "call_id"

	// ToolKey is the context key for tool names.
	ToolKey contextKey = "tool"

	// FieldKey is the context key for the field being validated.
	FieldKey contextKey = "field"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"
)

// WithCallID adds a call ID to the context.
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, CallIDKey, callID)
}

// GetCallID retrieves the call ID from the context.
func GetCallID(ctx context.Context) string {
	return stringValue(ctx, CallIDKey)
}

// WithTool adds a tool name to the context.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ToolKey, tool)
}

// GetTool retrieves the tool name from the context.
func GetTool(ctx context.Context) string {
	return stringValue(ctx, ToolKey)
}

// WithField adds the name of the field under validation to the context.
func WithField(ctx context.Context, field string) context.Context {
	return context.WithValue(ctx, FieldKey, field)
}

// GetField retrieves the field name from the context.
func GetField(ctx context.Context) string {
	return stringValue(ctx, FieldKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// WithSpanID adds a span ID to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span ID from the context.
func GetSpanID(ctx context.Context) string {
	return stringValue(ctx, SpanIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns key-value pairs for the context's call fields,
// in a fixed order.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range []contextKey{CallIDKey, ToolKey, FieldKey, TraceIDKey, SpanIDKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
