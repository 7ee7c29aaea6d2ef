// Package graph provides the dependency graph used to order field validation.
//
// A graph is built once from each field's "requires" list. Edges point from a
// field to the fields it requires. Two operations are offered:
//
//   - Cycles reports every cycle found by a depth-first walk, as the sequence
//     of fields on the cycle (a self-edge is a cycle of length 1).
//   - Sort returns a total order consistent with the edges using Kahn's
//     algorithm with a deterministic tie-break among ready fields.
//
// Fields named only as requirement targets (not declared themselves) are
// treated as leaves: they have no outgoing edges and are never part of the
// sorted output.
package graph
