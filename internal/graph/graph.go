package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle reports that a mutation would make the graph cyclic.
// A cycle can only be introduced by a defective fixer replacement;
// callers must treat it as fatal.
var ErrCycle = errors.New("graph contains a cycle")

// Graph owns every node reachable from its registered roots.
//
// Nodes are shared by reference among all consumers. A node's lifetime
// ends only when a Replace leaves it unreachable from every root, at
// which point it is released from the arena together with any operands
// that became unreachable with it.
type Graph struct {
	nodes    map[uint64]*Node
	roots    []*Node
	interned map[string]*Node
	nextSeq  uint64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[uint64]*Node),
		interned: make(map[string]*Node),
	}
}

// Len returns the number of live nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Contains reports whether n is live in this graph.
func (g *Graph) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	return g.nodes[n.seq] == n
}

// Roots returns a copy of the registered root nodes (Observe and
// Query) in registration order.
func (g *Graph) Roots() []*Node {
	out := make([]*Node, len(g.roots))
	copy(out, g.roots)
	return out
}

// ConsumersOf returns the nodes that use n as an input, ordered by
// sequence number for deterministic traversal. A consumer appears once
// even if it references n in several operand slots.
func (g *Graph) ConsumersOf(n *Node) []*Node {
	out := make([]*Node, 0, len(n.consumers))
	for c := range n.consumers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Replace rewires every consumer of old to reference next instead,
// swaps any root slot registered for old to next, then releases old
// (and any operands orphaned with it) if no root keeps it reachable.
// Returns the consumers that were rewired.
//
// The operation is transactional: if the rewiring would introduce a
// cycle, every edge swap is undone and ErrCycle is returned wrapped,
// leaving the graph exactly as it was.
//
// Replace is the single sanctioned mutation of node operand lists; it
// keeps the consumer multiset the exact inverse of the input relation
// and keeps the intern table consistent with the rewired consumers.
func (g *Graph) Replace(old, next *Node) ([]*Node, error) {
	if old == next {
		return nil, fmt.Errorf("replace: old and replacement are the same node %s", old)
	}
	if !g.Contains(old) {
		return nil, fmt.Errorf("replace: node %s is not in the graph", old)
	}
	if !g.Contains(next) {
		return nil, fmt.Errorf("replace: replacement %s is not in the graph", next)
	}

	rewired := g.ConsumersOf(old)
	slots := make(map[*Node][]int, len(rewired))

	for _, c := range rewired {
		slots[c] = g.swapInput(c, old, next)
	}

	// A replacement constructed through the Builder cannot close a
	// cycle, but a defective fixer could hand us a node that reaches
	// one of its new consumers. Verify before releasing anything.
	if g.hasCycle() {
		// Restore only the slots swapped above; a consumer may have
		// referenced next in other slots before the call.
		for _, c := range rewired {
			g.restoreSlots(c, slots[c], old, next)
		}
		return nil, fmt.Errorf("replace %s with %s: %w", old, next, ErrCycle)
	}

	for i, r := range g.roots {
		if r == old {
			g.roots[i] = next
		}
	}

	g.releaseIfUnreachable(old)
	return rewired, nil
}

// swapInput replaces every operand slot of c holding from with to,
// updating consumer multisets and c's intern-table entry. Returns the
// indices of the slots that changed.
func (g *Graph) swapInput(c, from, to *Node) []int {
	var swapped []int
	for i, in := range c.inputs {
		if in == from {
			c.inputs[i] = to
			from.dropConsumer(c)
			to.addConsumer(c)
			swapped = append(swapped, i)
		}
	}
	g.reintern(c)
	return swapped
}

// restoreSlots undoes swapInput for exactly the given slot indices.
func (g *Graph) restoreSlots(c *Node, slots []int, old, next *Node) {
	for _, i := range slots {
		c.inputs[i] = old
		next.dropConsumer(c)
		old.addConsumer(c)
	}
	g.reintern(c)
}

// reintern refreshes the intern-table entry for a node whose operand
// list changed. If the node's new shape collides with an existing
// interned node, the node is left un-interned; interning is a
// best-effort dedup for the Builder, never a correctness requirement.
func (g *Graph) reintern(n *Node) {
	if n.internKey == "" {
		return
	}
	delete(g.interned, n.internKey)
	key := internKey(n.kind, n.value, n.label, n.inputs)
	if _, taken := g.interned[key]; taken {
		n.internKey = ""
		return
	}
	n.internKey = key
	g.interned[key] = n
}

// releaseIfUnreachable drops n from the arena when it has no remaining
// consumers and is not a root, then recursively releases operands that
// were kept alive only by n.
func (g *Graph) releaseIfUnreachable(n *Node) {
	if len(n.consumers) > 0 || g.isRoot(n) || !g.Contains(n) {
		return
	}
	delete(g.nodes, n.seq)
	if n.internKey != "" {
		delete(g.interned, n.internKey)
		n.internKey = ""
	}
	for _, in := range n.inputs {
		in.dropConsumer(n)
	}
	for _, in := range n.inputs {
		g.releaseIfUnreachable(in)
	}
}

func (g *Graph) isRoot(n *Node) bool {
	for _, r := range g.roots {
		if r == n {
			return true
		}
	}
	return false
}

// add places a freshly constructed node into the arena. Only the
// Builder calls this; inputs must already be live in the graph.
func (g *Graph) add(n *Node) {
	g.nextSeq++
	n.seq = g.nextSeq
	g.nodes[n.seq] = n
	for _, in := range n.inputs {
		in.addConsumer(n)
	}
}

// addRoot registers a node as a graph root (Observe, Query).
// Roots anchor reachability: they are never released by Replace.
func (g *Graph) addRoot(n *Node) {
	g.roots = append(g.roots, n)
}
