// Package graph implements a small generic directed graph with
// rule-name-labelled edges, used by pruning's reverse-reachability walk
// over the rule dependency graph (trigger variable → action variable,
// per rule).
package graph

import hashset "github.com/hashicorp/go-set/v3"

// Graph is a directed graph over comparable nodes, where every edge
// additionally records which rule names contributed it — the pruner
// walks edges for reachability and also reports, through the controller's
// SurvivingRules, which rules are responsible for keeping a given node
// reachable.
type Graph[N comparable] struct {
	nodes        *hashset.Set[N]
	predecessors map[N]*hashset.Set[N]
	successors   map[N]*hashset.Set[N]
	edgeRules    map[edge[N]]*hashset.Set[string]
}

type edge[N comparable] struct {
	From, To N
}

// New returns an empty graph.
func New[N comparable]() *Graph[N] {
	return &Graph[N]{
		nodes:        hashset.New[N](0),
		predecessors: map[N]*hashset.Set[N]{},
		successors:   map[N]*hashset.Set[N]{},
		edgeRules:    map[edge[N]]*hashset.Set[string]{},
	}
}

// AddEdge records an edge from -> to contributed by ruleName, creating
// the nodes if needed and accumulating ruleName into the edge's
// contributing-rule set if the edge already existed.
func (g *Graph[N]) AddEdge(from, to N, ruleName string) {
	g.nodes.Insert(from)
	g.nodes.Insert(to)

	e := edge[N]{from, to}
	if g.edgeRules[e] == nil {
		g.edgeRules[e] = hashset.New[string](1)
		if g.predecessors[to] == nil {
			g.predecessors[to] = hashset.New[N](1)
		}
		g.predecessors[to].Insert(from)
		if g.successors[from] == nil {
			g.successors[from] = hashset.New[N](1)
		}
		g.successors[from].Insert(to)
	}
	g.edgeRules[e].Insert(ruleName)
}

// Has reports whether node was ever added to the graph (directly or as
// an edge endpoint).
func (g *Graph[N]) Has(node N) bool { return g.nodes.Contains(node) }

// ReverseReachable performs a reverse-reachability walk from starts: a
// node is reachable if it is in starts, or has an edge to an already
// reachable node. Returns the set of reachable nodes and the union of
// rule names labelling every edge walked, so pruning can report which
// rules survive alongside which variables do.
func (g *Graph[N]) ReverseReachable(starts []N) (*hashset.Set[N], *hashset.Set[string]) {
	reached := hashset.New[N](len(starts))
	survivingRules := hashset.New[string](0)

	frontier := append([]N(nil), starts...)
	for len(frontier) > 0 {
		var next []N
		for _, n := range frontier {
			if reached.Contains(n) {
				continue
			}
			reached.Insert(n)

			preds := g.predecessors[n]
			if preds == nil {
				continue
			}
			for _, p := range preds.Slice() {
				e := edge[N]{p, n}
				if rules := g.edgeRules[e]; rules != nil {
					survivingRules.InsertSet(rules)
				}
				if !reached.Contains(p) {
					next = append(next, p)
				}
			}
		}
		frontier = next
	}

	return reached, survivingRules
}

// Descendants performs the mirror-image forward walk from starts: a
// node is a descendant if it is in starts, or is reached by following
// an edge from an already-reached node. Used by a privacy policy to
// compute which variables a high/secret input can influence, per
// §4.7's "descendants_in_G(H)".
func (g *Graph[N]) Descendants(starts []N) *hashset.Set[N] {
	reached := hashset.New[N](len(starts))

	frontier := append([]N(nil), starts...)
	for len(frontier) > 0 {
		var next []N
		for _, n := range frontier {
			if reached.Contains(n) {
				continue
			}
			reached.Insert(n)

			succs := g.successors[n]
			if succs == nil {
				continue
			}
			for _, s := range succs.Slice() {
				if !reached.Contains(s) {
					next = append(next, s)
				}
			}
		}
		frontier = next
	}

	return reached
}
