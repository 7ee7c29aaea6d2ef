package validation

import (
	"mercator-hq/parley/pkg/fieldspec"
)

// contextResult is either the validator context or the unmet requirements of
// a field.
type contextResult struct {
	ctx     fieldspec.Context
	missing []string
}

// buildContext computes the validator context for field. When some
// requirement is absent from working, only the missing names are returned, in
// requires order. Otherwise the context holds every working value except the
// field's own: the required fields, other dynamic fields already validated
// (soft context), and all static fields.
func buildContext(field string, fs fieldspec.FieldSpec, working map[string]any) contextResult {
	var missing []string
	for _, req := range fs.Requires {
		if _, ok := working[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return contextResult{missing: missing}
	}

	values := make(map[string]any, len(working))
	for name, v := range working {
		if name != field {
			values[name] = v
		}
	}
	return contextResult{ctx: fieldspec.NewContext(values)}
}
