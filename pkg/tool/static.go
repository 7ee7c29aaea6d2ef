package tool

import (
	"encoding/json"
	"sort"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/rules"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// StaticField describes an argument the caller supplies as-is. Static
// arguments are not validated by field validators, but they feed the
// context of dynamic fields.
type StaticField struct {
	// Description is shown to the agent.
	Description string

	// Required rejects calls that omit the argument.
	Required bool

	// Schema optionally constrains the argument's JSON value.
	Schema json.RawMessage

	compiled *jsonschema.Schema
}

func (f *StaticField) compile() error {
	if len(f.Schema) == 0 {
		return nil
	}
	compiled, err := rules.CompileSchema(f.Schema)
	if err != nil {
		return err
	}
	f.compiled = compiled
	return nil
}

// checkStatic returns outcomes for every failing static argument, or nil if
// all pass.
func (t *Tool) checkStatic(args map[string]any) map[string]feedback.Outcome {
	var failed map[string]feedback.Outcome
	fail := func(name string, o feedback.Outcome) {
		if failed == nil {
			failed = make(map[string]feedback.Outcome)
		}
		failed[name] = o
	}

	for _, name := range t.StaticNames() {
		field := t.static[name]
		v, ok := args[name]
		if !ok || v == nil {
			if field.Required {
				fail(name, feedback.Invalid("no value provided"))
			}
			continue
		}
		if field.compiled == nil {
			continue
		}
		problems, err := rules.SchemaProblems(field.compiled, v)
		if err != nil {
			fail(name, feedback.Invalid(err.Error()))
			continue
		}
		if len(problems) > 0 {
			fail(name, feedback.Invalid(problems...))
		}
	}
	return failed
}

// StaticNames returns the static argument names in sorted order.
func (t *Tool) StaticNames() []string {
	names := make([]string, 0, len(t.static))
	for name := range t.static {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Static returns the definition of a static argument.
func (t *Tool) Static(name string) (StaticField, bool) {
	f, ok := t.static[name]
	return f, ok
}
