package graph

import (
	"fmt"
	"sort"
)

// TopologicalOrder returns every live node in a fixed, deterministic
// order: inputs always precede their consumers, and ties are broken by
// sequence number. This is the traversal order the rewrite engine
// uses, so replacement order is reproducible for identical graphs.
//
// Returns ErrCycle (wrapped) if the arena is not acyclic, which can
// only happen after a defective replacement.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	// Kahn's algorithm with a min-seq ready set. Operand multiplicity
	// counts: Add(x, x) contributes indegree 2.
	indegree := make(map[*Node]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = len(n.inputs)
	}

	var ready []*Node
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]*Node, 0, len(g.nodes))
	for len(ready) > 0 {
		// Pick the lowest sequence number for determinism. Graphs are
		// compiler-sized; a linear scan beats maintaining a heap.
		min := 0
		for i := 1; i < len(ready); i++ {
			if ready[i].seq < ready[min].seq {
				min = i
			}
		}
		n := ready[min]
		ready[min] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		order = append(order, n)

		for c, slots := range n.consumers {
			if !g.Contains(c) {
				continue
			}
			indegree[c] -= slots
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("topological order: %w", ErrCycle)
	}
	return order, nil
}

// hasCycle reports whether the arena currently contains a cycle.
// Used by Replace as a defensive post-rewiring check.
func (g *Graph) hasCycle() bool {
	_, err := g.TopologicalOrder()
	return err != nil
}

// positions assigns each live node its index in topological order.
// Structural dumps reference operands by position rather than raw
// sequence number so that separately built but identical graphs
// produce identical dumps.
func (g *Graph) positions() ([]*Node, map[*Node]int, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, nil, err
	}
	pos := make(map[*Node]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	return order, pos, nil
}

// sortedRootPositions returns the root positions in registration order.
func sortedRootPositions(roots []*Node, pos map[*Node]int) []int {
	out := make([]int, len(roots))
	for i, r := range roots {
		out[i] = pos[r]
	}
	sort.Ints(out)
	return out
}
