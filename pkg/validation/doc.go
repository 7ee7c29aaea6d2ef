// Package validation runs incremental, field-by-field validation of a partial
// tool-call payload against a fieldspec.Spec.
//
// One call proceeds through fixed stages:
//
//  1. Seeding: every input key that is not a dynamic field is copied into the
//     working value set as a trusted static value.
//  2. Ordering: the spec's cached topological order is used.
//  3. Iterating: for each dynamic field, the context builder either reports the
//     unmet requirements (the validator is not invoked) or assembles the
//     validator context. The validator's outcome passes through normalization
//     diffing, and a valid value is folded into the working set so later fields
//     see it.
//  4. Deciding: the call is accepted with the working set when no outcome is
//     invalid, otherwise rejected with every field's outcome.
//
// Validators are awaited strictly one at a time. A validator error is never
// swallowed: it aborts the call and is returned as a *ValidatorError. The
// engine keeps no state between calls and is safe for concurrent use.
package validation
