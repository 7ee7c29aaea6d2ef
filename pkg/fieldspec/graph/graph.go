package graph

import (
	"sort"
)

// TieBreak selects how simultaneously-ready fields are ordered by Sort.
type TieBreak int

const (
	// TieBreakLexicographic orders ready fields by name.
	TieBreakLexicographic TieBreak = iota

	// TieBreakFewestHints orders ready fields by their soft-hint count
	// ascending, then by name.
	TieBreakFewestHints
)

// String returns the configuration name of the tie-break policy.
func (t TieBreak) String() string {
	switch t {
	case TieBreakFewestHints:
		return "fewest_hints"
	default:
		return "lexicographic"
	}
}

// ParseTieBreak converts a configuration name into a TieBreak.
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "lexicographic":
		return TieBreakLexicographic, nil
	case "fewest_hints":
		return TieBreakFewestHints, nil
	default:
		return TieBreakLexicographic, &UnknownTieBreakError{Name: s}
	}
}

// Graph is an immutable adjacency structure over named nodes.
type Graph struct {
	// nodes is the sorted list of declared nodes.
	nodes []string

	// edges maps a node to the nodes it requires, in declaration order.
	edges map[string][]string

	// hints is the soft dependency count per node.
	hints map[string]int
}

// New builds a graph from a requires mapping and optional soft-hint counts.
// The inputs are copied; later changes to them do not affect the graph.
func New(requires map[string][]string, hints map[string]int) *Graph {
	g := &Graph{
		nodes: make([]string, 0, len(requires)),
		edges: make(map[string][]string, len(requires)),
		hints: make(map[string]int, len(hints)),
	}

	for name, reqs := range requires {
		g.nodes = append(g.nodes, name)
		g.edges[name] = append([]string(nil), reqs...)
	}
	sort.Strings(g.nodes)

	for name, n := range hints {
		g.hints[name] = n
	}

	return g
}

// Nodes returns the declared nodes in lexicographic order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Requires returns the outgoing edges of a node.
func (g *Graph) Requires(name string) []string {
	return append([]string(nil), g.edges[name]...)
}

// Cycles returns every cycle found by a depth-first walk from each node.
// Each cycle lists the nodes in edge order: [a b c] means a → b → c → a.
// It returns nil when the graph is acyclic.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string

	done := make(map[string]bool, len(g.nodes))
	onPath := make(map[string]int, len(g.nodes))
	var path []string

	var visit func(name string)
	visit = func(name string) {
		if idx, ok := onPath[name]; ok {
			cycle := append([]string(nil), path[idx:]...)
			cycles = append(cycles, cycle)
			return
		}
		if done[name] {
			return
		}

		onPath[name] = len(path)
		path = append(path, name)

		for _, dep := range g.edges[name] {
			visit(dep)
		}

		path = path[:len(path)-1]
		delete(onPath, name)
		done[name] = true
	}

	for _, name := range g.nodes {
		visit(name)
	}

	return cycles
}

// Sort returns the declared nodes in an order where every node appears after
// all the declared nodes it requires. Ties are broken by the given policy, so
// the output is identical across calls for the same graph.
func (g *Graph) Sort(tb TieBreak) ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))

	for _, name := range g.nodes {
		seen := make(map[string]bool, len(g.edges[name]))
		for _, dep := range g.edges[name] {
			if _, declared := g.edges[dep]; !declared || seen[dep] {
				continue
			}
			seen[dep] = true
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range g.nodes {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		g.sortReady(ready, tb)

		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []string
		for _, name := range g.nodes {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, &SortError{Unordered: stuck}
	}

	return order, nil
}

func (g *Graph) sortReady(ready []string, tb TieBreak) {
	sort.SliceStable(ready, func(i, j int) bool {
		if tb == TieBreakFewestHints {
			hi, hj := g.hints[ready[i]], g.hints[ready[j]]
			if hi != hj {
				return hi < hj
			}
		}
		return ready[i] < ready[j]
	})
}
