package logging

import (
	"context"
	"reflect"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if GetCallID(ctx) != "" || GetTool(ctx) != "" {
		t.Fatal("empty context must yield empty values")
	}

	ctx = WithTraceID(WithSpanID(ctx, "span"), "trace")
	ctx = WithTool(WithCallID(ctx, "id"), "tool")

	got := extractContextFields(ctx)
	want := []any{"call_id", "id", "tool", "tool", "trace_id", "trace", "span_id", "span"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extractContextFields() = %v, want %v", got, want)
	}
}
