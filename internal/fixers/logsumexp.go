package fixers

import (
	"github.com/roach88/fixpoint/internal/graph"
	"github.com/roach88/fixpoint/internal/lattice"
)

// LogSumExp rewrites log expressions of the form
//
//	log(exp(a) + exp(b) + exp(c) + ...)  ->  logsumexp(a, b, c, ...)
//
// shrinking a tree of depth O(2k) to one fused node and giving the
// backend a primitive it can evaluate with max-subtraction
// stabilization instead of the naive exp/sum/log composition.
//
// The match is all-or-nothing: every input of the sum must be an Exp
// node. A sum that mixes exponentials with other terms is left alone;
// partial factoring is deliberately not attempted.
//
// This fixer depends on MultiaryAddition having normalized addition
// chains into a single MULTI_ADD node first.
type LogSumExp struct {
	typer *lattice.Typer
}

// NewLogSumExp creates the fixer bound to the shared type oracle.
func NewLogSumExp(typer *lattice.Typer) *LogSumExp {
	return &LogSumExp{typer: typer}
}

// Name implements rewrite.Fixer.
func (f *LogSumExp) Name() string { return "logsumexp" }

// NeedsFixing matches a Log node whose sole operand is a MultiAdd all
// of whose inputs are Exp nodes. All three conditions are kind checks;
// no value is evaluated. An untypable Exp operand declines the match
// conservatively.
func (f *LogSumExp) NeedsFixing(g *graph.Graph, n *graph.Node) bool {
	if n.Kind() != graph.KindLog {
		return false
	}
	sum := n.Input(0)
	if sum.Kind() != graph.KindMultiAdd {
		return false
	}
	for i := 0; i < sum.NumInputs(); i++ {
		term := sum.Input(i)
		if term.Kind() != graph.KindExp {
			return false
		}
		if _, err := f.typer.TypeOf(term.Input(0)); err != nil {
			// Classification failure is a prior concern, not ours:
			// treat the pattern as not applying.
			return false
		}
	}
	return true
}

// GetReplacement extracts the operand of each Exp term, preserving the
// MultiAdd's input order, and builds a single LogSumExp node over
// them. LogSumExp is order-sensitive for reproducibility even though
// the mathematical result is order-invariant.
func (f *LogSumExp) GetReplacement(g *graph.Graph, n *graph.Node) (*graph.Node, error) {
	sum := n.Input(0)
	operands := make([]*graph.Node, sum.NumInputs())
	for i := 0; i < sum.NumInputs(); i++ {
		operands[i] = sum.Input(i).Input(0)
	}
	return graph.NewBuilder(g).AddLogSumExp(operands...)
}
