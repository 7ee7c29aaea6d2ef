package rules

import (
	"context"
	"fmt"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"

	"github.com/google/cel-go/cel"
)

var checkEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.Variable("context", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(fmt.Sprintf("rules: CEL environment: %v", err))
	}
	checkEnv = env
}

// Check returns a step that evaluates a boolean CEL expression over
// `value` (the current value) and `context` (the field's context map).
// A false result, or an expression that cannot be evaluated for this
// value, rejects the value with message.
func Check(expr, message string) (Step, error) {
	ast, issues := checkEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &RuleError{Rule: "check", Message: fmt.Sprintf("expression %q does not compile", expr), Cause: issues.Err()}
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, &RuleError{Rule: "check", Message: fmt.Sprintf("expression %q must be boolean, got %s", expr, t)}
	}
	prg, err := checkEnv.Program(ast)
	if err != nil {
		return nil, &RuleError{Rule: "check", Message: "program construction failed", Cause: err}
	}
	if message == "" {
		message = fmt.Sprintf("value does not satisfy %s", expr)
	}

	return StepFunc(func(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error) {
		out, _, err := prg.ContextEval(ctx, map[string]any{
			"value":   value,
			"context": fctx.Map(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return feedback.Outcome{}, ctx.Err()
			}
			return feedback.Invalid(message), nil
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			return feedback.Invalid(message), nil
		}
		return feedback.Valid(), nil
	}), nil
}

// MustCheck is like Check but panics if the expression does not compile.
func MustCheck(expr, message string) Step {
	return must(Check(expr, message))
}
