package graph

import (
	"fmt"
	"strings"
)

// SortError is returned when Sort cannot order every node. Cycle detection
// must reject such graphs first, so this indicates a broken invariant.
type SortError struct {
	// Unordered lists the nodes left with unresolved requirements.
	Unordered []string
}

// Error implements the error interface.
func (e *SortError) Error() string {
	return fmt.Sprintf("topological sort left %d node(s) unordered: %s",
		len(e.Unordered), strings.Join(e.Unordered, ", "))
}

// UnknownTieBreakError is returned by ParseTieBreak for unknown policy names.
type UnknownTieBreakError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownTieBreakError) Error() string {
	return fmt.Sprintf("unknown tie-break policy %q (want lexicographic or fewest_hints)", e.Name)
}
