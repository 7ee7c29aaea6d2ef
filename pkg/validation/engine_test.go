package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"
)

type flight struct {
	departure, arrival, date string
	seats                    int
}

var flights = []flight{
	{"Berlin", "London", "2026-10-04", 3},
	{"Berlin", "Paris", "2026-10-05", 1},
	{"London", "Berlin", "2026-10-06", 2},
}

func matching(fctx fieldspec.Context) []flight {
	var out []flight
	for _, f := range flights {
		if d := fctx.String("departure"); d != "" && f.departure != d {
			continue
		}
		if a := fctx.String("arrival"); a != "" && f.arrival != a {
			continue
		}
		if dt := fctx.String("date"); dt != "" && f.date != dt {
			continue
		}
		out = append(out, f)
	}
	return out
}

func pick(fctx fieldspec.Context, value any, get func(flight) string) feedback.Outcome {
	var options []any
	seen := map[string]bool{}
	for _, f := range matching(fctx) {
		v := get(f)
		if v == fmt.Sprint(value) {
			return feedback.Valid()
		}
		if !seen[v] {
			seen[v] = true
			options = append(options, v)
		}
	}
	if value == nil {
		return feedback.Invalid("no match for undefined").WithAllowedValues(options...)
	}
	return feedback.Invalidf("no match for %v", value).WithAllowedValues(options...)
}

func flightSpec(t *testing.T) *fieldspec.Spec {
	t.Helper()
	spec, err := fieldspec.New(map[string]fieldspec.FieldSpec{
		"departure": {
			Validate: func(_ context.Context, v any, fctx fieldspec.Context) (feedback.Outcome, error) {
				return pick(fctx, v, func(f flight) string { return f.departure }), nil
			},
		},
		"arrival": {
			Requires: []string{"departure"},
			Validate: func(_ context.Context, v any, fctx fieldspec.Context) (feedback.Outcome, error) {
				return pick(fctx, v, func(f flight) string { return f.arrival }), nil
			},
		},
		"date": {
			Requires: []string{"departure", "arrival"},
			Validate: func(_ context.Context, v any, fctx fieldspec.Context) (feedback.Outcome, error) {
				return pick(fctx, v, func(f flight) string { return f.date }), nil
			},
		},
		"passengers": {
			Requires: []string{"departure", "arrival", "date"},
			Validate: func(_ context.Context, v any, fctx fieldspec.Context) (feedback.Outcome, error) {
				n, ok := v.(int)
				if !ok || n < 1 {
					return feedback.Invalid("passengers must be a positive integer"), nil
				}
				for _, f := range matching(fctx) {
					if n <= f.seats {
						return feedback.Valid(), nil
					}
					return feedback.Invalidf("only %d seat(s) left", f.seats), nil
				}
				return feedback.Invalid("no matching flight"), nil
			},
		},
	})
	if err != nil {
		t.Fatalf("fieldspec.New() error = %v", err)
	}
	return spec
}

func TestEngine_EmptyInputRejects(t *testing.T) {
	result, err := New(flightSpec(t)).Validate(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if result.Status != feedback.StatusRejected {
		t.Fatalf("Status = %s, want rejected", result.Status)
	}

	dep := result.ValidationResults["departure"]
	if dep.Valid || !reflect.DeepEqual(dep.Problems, []string{"no match for undefined"}) {
		t.Errorf("departure = %+v", dep)
	}
	if dep.Hint == nil || !dep.Hint.Exhaustive || len(dep.Hint.Values) != 2 {
		t.Errorf("departure hint = %+v, want allowed Berlin and London", dep.Hint)
	}

	wantRequires := map[string][]string{
		"arrival":    {"departure"},
		"date":       {"departure", "arrival"},
		"passengers": {"departure", "arrival", "date"},
	}
	for field, want := range wantRequires {
		got := result.ValidationResults[field]
		if got.Valid || !reflect.DeepEqual(got.RequiresValidParameters, want) {
			t.Errorf("%s = %+v, want requiresValidParameters %v", field, got, want)
		}
		if len(got.Problems) != 0 {
			t.Errorf("%s carries problems %v", field, got.Problems)
		}
	}
}

func TestEngine_FullInputAccepts(t *testing.T) {
	input := map[string]any{
		"departure":  "Berlin",
		"arrival":    "London",
		"date":       "2026-10-04",
		"passengers": 2,
	}

	result, err := New(flightSpec(t)).Validate(context.Background(), input)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !result.IsAccepted() {
		t.Fatalf("result = %s", result.Summary())
	}
	if !reflect.DeepEqual(result.Value, input) {
		t.Errorf("Value = %v, want %v", result.Value, input)
	}
}

func TestEngine_PartialInput(t *testing.T) {
	result, err := New(flightSpec(t)).Validate(context.Background(), map[string]any{
		"departure": "Berlin",
		"arrival":   "Rome",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !result.ValidationResults["departure"].Valid {
		t.Error("departure should be reported valid for transparency")
	}
	arr := result.ValidationResults["arrival"]
	if arr.Valid || arr.Hint == nil || !reflect.DeepEqual(arr.Hint.Values, []any{"London", "Paris"}) {
		t.Errorf("arrival = %+v", arr)
	}
	if got := result.ValidationResults["date"].RequiresValidParameters; !reflect.DeepEqual(got, []string{"arrival"}) {
		t.Errorf("date requires = %v, want [arrival]", got)
	}
	if got := result.ValidationResults["passengers"].RequiresValidParameters; !reflect.DeepEqual(got, []string{"arrival", "date"}) {
		t.Errorf("passengers requires = %v, want [arrival date]", got)
	}
}

func TestEngine_UnmetRequirementsSkipValidator(t *testing.T) {
	called := false
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"a": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Invalid("bad a"), nil
		}},
		"b": {
			Requires: []string{"a"},
			Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
				called = true
				return feedback.Valid(), nil
			},
		},
	})

	result, err := New(spec).Validate(context.Background(), map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if called {
		t.Error("validator for b ran although a is invalid")
	}
	if got := result.ValidationResults["b"].RequiresValidParameters; !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("b requires = %v", got)
	}
}

func TestEngine_Normalization(t *testing.T) {
	var seenByGreeting any
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"name": {Validate: func(_ context.Context, v any, _ fieldspec.Context) (feedback.Outcome, error) {
			s, _ := v.(string)
			s = strings.TrimSpace(s)
			if s == "" {
				return feedback.Invalid("name is required"), nil
			}
			return feedback.Normalized(strings.ToUpper(s[:1]) + s[1:]), nil
		}},
		"greeting": {
			Requires: []string{"name"},
			Validate: func(_ context.Context, _ any, fctx fieldspec.Context) (feedback.Outcome, error) {
				seenByGreeting, _ = fctx.Get("name")
				return feedback.Valid(), nil
			},
		},
		"blocker": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Invalid("always invalid"), nil
		}},
	})
	engine := New(spec)

	t.Run("normalized value flows forward and is reported", func(t *testing.T) {
		result, err := engine.Validate(context.Background(), map[string]any{"name": "  john  "})
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		nv, ok := result.ValidationResults["name"].NormalizedValue()
		if !ok || nv != "John" {
			t.Errorf("name normalized = %v, %v; want John", nv, ok)
		}
		if seenByGreeting != "John" {
			t.Errorf("greeting saw %v, want John", seenByGreeting)
		}
	})

	t.Run("no-op normalization is suppressed", func(t *testing.T) {
		result, err := engine.Validate(context.Background(), map[string]any{"name": "John"})
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		outcome := result.ValidationResults["name"]
		if _, ok := outcome.NormalizedValue(); ok {
			t.Error("no-op normalization was reported")
		}
		if !outcome.Valid || seenByGreeting != "John" {
			t.Errorf("outcome = %+v, greeting saw %v", outcome, seenByGreeting)
		}
	})
}

func TestEngine_AcceptedUsesNormalizedValues(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"name": {Validate: func(_ context.Context, v any, _ fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Normalized(strings.TrimSpace(v.(string))), nil
		}},
	})

	result, err := New(spec).Validate(context.Background(), map[string]any{"name": "  John ", "user_id": "u-1"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := map[string]any{"name": "John", "user_id": "u-1"}
	if !result.IsAccepted() || !reflect.DeepEqual(result.Value, want) {
		t.Errorf("result = %+v, want accepted %v", result, want)
	}
}

func TestEngine_ContextComposition(t *testing.T) {
	var got map[string]any
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"a": {},
		"b": {},
		"c": {
			Requires: []string{"a"},
			Validate: func(_ context.Context, _ any, fctx fieldspec.Context) (feedback.Outcome, error) {
				got = fctx.Map()
				return feedback.Valid(), nil
			},
		},
		"d": {},
	})

	_, err := New(spec).Validate(context.Background(), map[string]any{
		"a": 1, "b": 2, "c": 3, "d": 4, "tenant": "acme",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	// d sorts after c, so it is not yet known when c runs.
	want := map[string]any{"a": 1, "b": 2, "tenant": "acme"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("context = %v, want %v", got, want)
	}
}

func TestEngine_AbsentValueAccepted(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"note":   {},
		"report": {Requires: []string{"note"}},
	})

	result, err := New(spec).Validate(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := map[string]any{"note": nil, "report": nil}
	if !result.IsAccepted() || !reflect.DeepEqual(result.Value, want) {
		t.Errorf("result = %+v, want accepted %v", result, want)
	}
}

func TestEngine_ValidatorErrorPropagates(t *testing.T) {
	boom := errors.New("database unavailable")
	calledAfter := false
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"a": {},
		"b": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Outcome{}, boom
		}},
		"c": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			calledAfter = true
			return feedback.Valid(), nil
		}},
	})

	result, err := New(spec).Validate(context.Background(), map[string]any{"a": 1})
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	var vErr *ValidatorError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidatorError", err)
	}
	if vErr.Field != "b" || !errors.Is(err, boom) {
		t.Errorf("ValidatorError = %+v", vErr)
	}
	if _, ok := vErr.Results["a"]; !ok {
		t.Error("Results missing the field processed before the failure")
	}
	if calledAfter {
		t.Error("validation continued after a validator error")
	}
}

func TestEngine_UnexplainedRejection(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"a": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Outcome{}, nil
		}},
	})

	result, err := New(spec).Validate(context.Background(), map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := result.ValidationResults["a"].Problems; !reflect.DeepEqual(got, []string{unexplainedProblem}) {
		t.Errorf("problems = %v", got)
	}
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	spec := fieldspec.MustNew(map[string]fieldspec.FieldSpec{
		"name": {Validate: func(context.Context, any, fieldspec.Context) (feedback.Outcome, error) {
			return feedback.Normalized("X"), nil
		}},
	})
	input := map[string]any{"name": "x"}

	if _, err := New(spec).Validate(context.Background(), input); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if input["name"] != "x" {
		t.Errorf("input mutated: %v", input)
	}
}

type recordingObserver struct {
	NopObserver
	started, done, unmet []string
}

func (r *recordingObserver) FieldStart(ctx context.Context, field string) context.Context {
	r.started = append(r.started, field)
	return ctx
}

func (r *recordingObserver) FieldDone(_ context.Context, field string, _ feedback.Outcome, _ error, _ time.Duration) {
	r.done = append(r.done, field)
}

func (r *recordingObserver) FieldUnmet(_ context.Context, field string, _ []string) {
	r.unmet = append(r.unmet, field)
}

func TestEngine_Observer(t *testing.T) {
	rec := &recordingObserver{}
	engine := New(flightSpec(t), WithObserver(Observers{rec, NopObserver{}}))

	if _, err := engine.Validate(context.Background(), map[string]any{"departure": "Berlin"}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !reflect.DeepEqual(rec.started, []string{"departure", "arrival"}) {
		t.Errorf("started = %v", rec.started)
	}
	if !reflect.DeepEqual(rec.done, rec.started) {
		t.Errorf("done = %v", rec.done)
	}
	if !reflect.DeepEqual(rec.unmet, []string{"date", "passengers"}) {
		t.Errorf("unmet = %v", rec.unmet)
	}
}
