// Package feedback defines the per-field and whole-call results returned to a
// caller of a validated tool.
//
// A field Outcome is either valid (optionally carrying a normalized value) or
// invalid. An invalid outcome always carries something actionable: free-form
// problems, the names of other fields that must become valid first, or both.
// Either kind may carry a ValueHint listing acceptable values; the hint is
// exhaustive ("allowedValues") or not ("suggestedValues"), never both.
//
// A CallResult is "accepted" with the fully resolved value set, or "rejected"
// with the outcome of every processed field.
//
// Wire shapes:
//
//	{"status":"accepted","value":{"departure":"Berlin"}}
//	{"status":"rejected","validationResults":{"arrival":{"valid":false,"requiresValidParameters":["departure"]}}}
package feedback
