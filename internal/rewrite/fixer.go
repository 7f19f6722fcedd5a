package rewrite

import "github.com/roach88/fixpoint/internal/graph"

// Fixer is one rewrite rule: a pattern predicate plus a replacement
// constructor.
//
// Contract:
//   - NeedsFixing is evaluated against the current graph state; it
//     must be pure (no mutation) and cheap. An oracle failure on an
//     operand means the pattern does not apply, never a panic.
//   - GetReplacement is called only immediately after NeedsFixing
//     returned true for the same node with no intervening mutation;
//     it may assume the pattern still holds. It must build the
//     replacement through a graph.Builder and return it. Returning
//     nil or an error contradicts NeedsFixing and is treated by the
//     engine as a fatal fixer defect.
//   - Every replacement must strictly reduce some well-founded
//     measure (node count, kind-priority rank) so the engine's
//     fixpoint loop terminates.
//
// Fixers hold no hidden mutable state beyond the type oracle they are
// bound to, so each can be unit-tested against a hand-built graph.
type Fixer interface {
	// Name identifies the fixer in reports, logs, and pipeline
	// configuration.
	Name() string

	// NeedsFixing reports whether n matches the fixer's pattern.
	NeedsFixing(g *graph.Graph, n *graph.Node) bool

	// GetReplacement constructs the replacement for a matched node.
	GetReplacement(g *graph.Graph, n *graph.Node) (*graph.Node, error)
}
