package fixers

import "github.com/roach88/fixpoint/internal/graph"

// MultiaryAddition normalizes addition chains into a single flat
// MULTI_ADD node:
//
//	add(add(x, y), z)  ->  multiadd(x, y, z)
//
// It matches any addition (binary or n-ary) that has an addition
// among its inputs and replaces it with one MultiAdd over the
// in-order leaves of the chain. Fixers that pattern-match on sums
// (LogSumExp) rely on this normal form, so this fixer must run before
// them in the pipeline.
//
// Termination: each replacement eliminates at least one
// addition-under-addition nesting and the flat result never rematches.
type MultiaryAddition struct{}

// NewMultiaryAddition creates the normalizer. It needs no oracle: the
// pattern is purely structural.
func NewMultiaryAddition() *MultiaryAddition {
	return &MultiaryAddition{}
}

// Name implements rewrite.Fixer.
func (f *MultiaryAddition) Name() string { return "multiadd" }

// NeedsFixing matches an addition node with an addition input.
func (f *MultiaryAddition) NeedsFixing(g *graph.Graph, n *graph.Node) bool {
	if !isAddition(n.Kind()) {
		return false
	}
	for i := 0; i < n.NumInputs(); i++ {
		if isAddition(n.Input(i).Kind()) {
			return true
		}
	}
	return false
}

// GetReplacement builds one MultiAdd over the chain's leaves in
// left-to-right order.
func (f *MultiaryAddition) GetReplacement(g *graph.Graph, n *graph.Node) (*graph.Node, error) {
	leaves := flattenAddition(n, nil)
	return graph.NewBuilder(g).AddMultiAdd(leaves...)
}

// flattenAddition collects the non-addition leaves of an addition
// chain, preserving operand order.
func flattenAddition(n *graph.Node, acc []*graph.Node) []*graph.Node {
	for i := 0; i < n.NumInputs(); i++ {
		in := n.Input(i)
		if isAddition(in.Kind()) {
			acc = flattenAddition(in, acc)
			continue
		}
		acc = append(acc, in)
	}
	return acc
}

func isAddition(k graph.Kind) bool {
	return k == graph.KindAdd || k == graph.KindMultiAdd
}
