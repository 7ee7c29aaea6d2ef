// Package rules builds field validators from small, declarative steps.
//
// A Step inspects the current value of a field and either accepts it
// (possibly normalizing it), rejects it with problems, or fails with an
// error. Field wraps a sequence of steps into a fieldspec.ValidateFunc and
// handles absent values:
//
//	validate := rules.Field(true,
//	    rules.MustNormalize("trim", "upper"),
//	    rules.MustLookup(db, "SELECT code FROM airports", nil, true),
//	)
//
// Each step sees the value produced by the previous one, so a lookup runs
// against the trimmed, upper-cased airport code.
package rules
