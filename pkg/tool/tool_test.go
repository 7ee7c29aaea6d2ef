package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"
	"mercator-hq/parley/pkg/rules"
)

// routeSpec declares departure and an arrival that depends on it.
func routeSpec(t *testing.T, calls *atomic.Int32) *fieldspec.Spec {
	t.Helper()
	routes := map[string][]any{"LHR": {"JFK", "CDG"}, "JFK": {"LAX"}}

	spec, err := fieldspec.NewBuilder().
		Field("departure",
			fieldspec.Describe("IATA code of the departure airport"),
			fieldspec.Validate(rules.Field(true,
				rules.MustNormalize(rules.OpTrim, rules.OpUpper),
				rules.OneOf([]any{"LHR", "JFK"}, true),
			)),
		).
		Field("arrival",
			fieldspec.Requires("departure"),
			fieldspec.Validate(func(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error) {
				if calls != nil {
					calls.Add(1)
				}
				return rules.Field(true, rules.OneOf(routes[fctx.String("departure")], true))(ctx, value, fctx)
			}),
		).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return spec
}

func TestNew_Definitions(t *testing.T) {
	spec := routeSpec(t, nil)

	tests := []struct {
		name    string
		tool    string
		opts    []Option
		wantErr bool
	}{
		{"valid", "book_flight", nil, false},
		{"bad name", "book flight!", nil, true},
		{"static shadows dynamic", "book_flight", []Option{WithStatic("arrival", StaticField{})}, true},
		{"bad static schema", "book_flight", []Option{WithStatic("passengers", StaticField{Schema: json.RawMessage(`{"type": 5}`)})}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tool, "", spec, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			var derr *DefinitionError
			if err != nil && !errors.As(err, &derr) {
				t.Errorf("expected DefinitionError, got %T", err)
			}
		})
	}

	if _, err := New("x", "", nil); err == nil {
		t.Error("expected error for nil spec")
	}
}

func TestInvoke(t *testing.T) {
	tl := MustNew("book_flight", "Books a flight", routeSpec(t, nil),
		WithStatic("passengers", StaticField{
			Required: true,
			Schema:   json.RawMessage(`{"type": "integer", "minimum": 1}`),
		}),
	)

	tests := []struct {
		name        string
		args        map[string]any
		wantStatus  feedback.Status
		wantInvalid []string
	}{
		{"accepted with normalization", map[string]any{"passengers": 2, "departure": " lhr", "arrival": "cdg"}, feedback.StatusAccepted, nil},
		{"dynamic rejection", map[string]any{"passengers": 2, "departure": "LHR", "arrival": "LAX"}, feedback.StatusRejected, []string{"arrival"}},
		{"missing static", map[string]any{"departure": "LHR", "arrival": "JFK"}, feedback.StatusRejected, []string{"passengers"}},
		{"static schema violation", map[string]any{"passengers": 0, "departure": "LHR", "arrival": "JFK"}, feedback.StatusRejected, []string{"passengers"}},
		{"nil args", nil, feedback.StatusRejected, []string{"passengers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tl.Invoke(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s (%s)", res.Status, tt.wantStatus, res.Summary())
			}
			if got := strings.Join(res.InvalidFields(), ","); got != strings.Join(tt.wantInvalid, ",") {
				t.Errorf("invalid fields = %q, want %v", got, tt.wantInvalid)
			}
		})
	}

	res, _ := tl.Invoke(context.Background(), map[string]any{"passengers": 2, "departure": " lhr", "arrival": "cdg"})
	if res.Value["departure"] != "LHR" || res.Value["arrival"] != "CDG" || res.Value["passengers"] != 2 {
		t.Errorf("unexpected accepted value %v", res.Value)
	}
}

func TestInvoke_ValidatorErrorBecomesRejection(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"a": {},
		"b": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Outcome{}, errors.New("database unavailable")
		}},
	})
	tl := MustNew("t", "", spec)

	res, err := tl.Invoke(context.Background(), map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if res.IsAccepted() {
		t.Fatal("expected rejection")
	}
	if !res.ValidationResults["a"].Valid {
		t.Error("outcomes recorded before the failure must be kept")
	}
	b := res.ValidationResults["b"]
	if b.Valid || len(b.Problems) != 1 || !strings.Contains(b.Problems[0], "database unavailable") {
		t.Errorf("unexpected outcome for failing field: %+v", b)
	}
}

func TestInvoke_CallTimeout(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"slow": {Validate: func(ctx context.Context, _ any, _ fieldspec.Context) (feedback.Outcome, error) {
			<-ctx.Done()
			return feedback.Outcome{}, ctx.Err()
		}},
	})
	tl := MustNew("t", "", spec, WithCallTimeout(10*time.Millisecond))

	res, err := tl.Invoke(context.Background(), map[string]any{"slow": true})
	if err != nil {
		t.Fatalf("timeout must surface as a rejection, got error %v", err)
	}
	if p := res.ValidationResults["slow"].Problems; len(p) != 1 || !strings.Contains(p[0], "deadline exceeded") {
		t.Errorf("unexpected problems %v", p)
	}
}

func TestInvoke_CallerCancellation(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"f": {Validate: func(ctx context.Context, _ any, _ fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Outcome{}, ctx.Err()
		}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MustNew("t", "", spec).Invoke(ctx, map[string]any{"f": 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
				trace = append(trace, name+">")
				res, err := next(ctx, call)
				trace = append(trace, "<"+name)
				return res, err
			}
		}
	}

	tl := MustNew("t", "", routeSpec(t, nil), WithMiddleware(mark("inner"))).With(mark("outer"))
	if _, err := tl.Invoke(context.Background(), map[string]any{"departure": "LHR", "arrival": "JFK"}); err != nil {
		t.Fatal(err)
	}

	if got := strings.Join(trace, " "); got != "outer> inner> <inner <outer" {
		t.Errorf("middleware order = %q", got)
	}
}

func TestCallIDsAreUnique(t *testing.T) {
	var ids []string
	capture := func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
			ids = append(ids, call.ID)
			return next(ctx, call)
		}
	}
	tl := MustNew("t", "", routeSpec(t, nil), WithMiddleware(capture))
	for i := 0; i < 2; i++ {
		_, _ = tl.Invoke(context.Background(), nil)
	}
	if len(ids) != 2 || ids[0] == ids[1] || ids[0] == "" {
		t.Errorf("expected two distinct call IDs, got %v", ids)
	}
}
