// Package tool binds a field specification to a callable agent tool.
//
// A Tool owns a validation engine, the description of its static arguments
// and a middleware chain. Invoke runs one call:
//
//  1. Static arguments are checked against their declared schemas. Failures
//     reject the call before any validator runs.
//  2. The engine validates the dynamic fields, bounded by the optional call
//     timeout.
//  3. A validator that fails with an error turns into a rejected result in
//     which the failing field carries the error text as a problem.
//
// Middleware wraps the engine call and may observe individual fields through
// the context (see ObserveFields). The provided middleware adds logging,
// metrics, tracing and an idempotent replay cache.
package tool
