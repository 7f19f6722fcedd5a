package lattice

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/fixpoint/internal/graph"
)

// UntypableError reports that a node cannot be classified.
//
// This is not a fatal condition at the oracle level: fixers consult
// the typer for applicability and must conservatively decline a match
// on an untypable operand rather than abort.
type UntypableError struct {
	Node   *graph.Node
	Reason string
}

func (e *UntypableError) Error() string {
	return fmt.Sprintf("node %s is untypable: %s", e.Node, e.Reason)
}

// IsUntypable reports whether err is an UntypableError, unwrapping as
// needed.
func IsUntypable(err error) bool {
	var ue *UntypableError
	return errors.As(err, &ue)
}

// Typer is the memoized type oracle for one graph.
//
// TypeOf derives types bottom-up; results are cached per node. The
// rewrite engine calls Invalidate after every replacement so later
// queries re-derive against the mutated graph.
type Typer struct {
	g    *graph.Graph
	memo map[*graph.Node]Type
}

// NewTyper creates a typer bound to g.
func NewTyper(g *graph.Graph) *Typer {
	return &Typer{
		g:    g,
		memo: make(map[*graph.Node]Type),
	}
}

// TypeOf returns the abstract value type of n. Returns Untypable with
// an UntypableError when no classification exists (e.g. Log over a
// possibly-negative operand, or an operator over a distribution).
func (t *Typer) TypeOf(n *graph.Node) (Type, error) {
	if n == nil {
		return Untypable, &UntypableError{Node: n, Reason: "nil node"}
	}
	if ty, ok := t.memo[n]; ok {
		if ty == Untypable {
			return Untypable, &UntypableError{Node: n, Reason: "memoized"}
		}
		return ty, nil
	}

	ty, err := t.derive(n)
	t.memo[n] = ty
	return ty, err
}

// Invalidate clears the memoized type of n and of every transitive
// consumer. Type inference composes bottom-up, so an ancestor change
// can alter any downstream classification.
//
// Entries for nodes a replacement released from the graph are dropped
// as well, so the memo never pins dead subgraphs.
func (t *Typer) Invalidate(n *graph.Node) {
	if n == nil {
		return
	}
	t.invalidate(n)
	for node := range t.memo {
		if !t.g.Contains(node) {
			delete(t.memo, node)
		}
	}
}

func (t *Typer) invalidate(n *graph.Node) {
	delete(t.memo, n)
	for _, c := range t.g.ConsumersOf(n) {
		t.invalidate(c)
	}
}

// MemoSize returns the number of cached classifications. Used by tests
// to verify invalidation.
func (t *Typer) MemoSize() int { return len(t.memo) }

func (t *Typer) derive(n *graph.Node) (Type, error) {
	switch n.Kind() {
	case graph.KindConstant:
		return constantType(n.Value()), nil

	case graph.KindAdd, graph.KindMultiAdd:
		s, err := t.supInputs(n)
		if err != nil {
			return Untypable, err
		}
		// Sums escape the unit interval: booleans count up to the
		// operand count, probabilities up to it as well.
		switch s {
		case Boolean:
			return Natural, nil
		case Probability:
			return PositiveReal, nil
		}
		return s, nil

	case graph.KindMultiply:
		return t.supInputs(n)

	case graph.KindNegate:
		if _, err := t.supInputs(n); err != nil {
			return Untypable, err
		}
		return Real, nil

	case graph.KindExp:
		if _, err := t.supInputs(n); err != nil {
			return Untypable, err
		}
		return PositiveReal, nil

	case graph.KindLog:
		s, err := t.supInputs(n)
		if err != nil {
			return Untypable, err
		}
		if !leq(s, PositiveReal) {
			return Untypable, &UntypableError{Node: n, Reason: fmt.Sprintf("log of %s operand", s)}
		}
		return Real, nil

	case graph.KindLogSumExp:
		if _, err := t.supInputs(n); err != nil {
			return Untypable, err
		}
		return Real, nil

	case graph.KindNormal, graph.KindBeta, graph.KindBernoulli:
		if _, err := t.supInputs(n); err != nil {
			return Untypable, err
		}
		return Distribution, nil

	case graph.KindSample:
		return sampleType(n)

	case graph.KindObserve, graph.KindQuery:
		return t.TypeOf(n.Input(0))

	default:
		return Untypable, &UntypableError{Node: n, Reason: "unknown kind"}
	}
}

// supInputs joins the input types, failing if any input is untypable
// or non-scalar.
func (t *Typer) supInputs(n *graph.Node) (Type, error) {
	s := Boolean // bottom of the scalar diamond
	for i := 0; i < n.NumInputs(); i++ {
		in := n.Input(i)
		ty, err := t.TypeOf(in)
		if err != nil {
			return Untypable, err
		}
		s = Sup(s, ty)
		if s == Untypable {
			return Untypable, &UntypableError{Node: n, Reason: fmt.Sprintf("operand %s has type %s", in, ty)}
		}
	}
	return s, nil
}

// constantType classifies a constant by value.
func constantType(v float64) Type {
	switch {
	case v == 0 || v == 1:
		return Boolean
	case v > 0 && v == math.Trunc(v):
		return Natural
	case v > 0 && v < 1:
		return Probability
	case v > 0:
		return PositiveReal
	default:
		return Real
	}
}

// sampleType classifies a sample by its distribution's kind.
func sampleType(n *graph.Node) (Type, error) {
	switch n.Input(0).Kind() {
	case graph.KindNormal:
		return Real, nil
	case graph.KindBeta:
		return Probability, nil
	case graph.KindBernoulli:
		return Boolean, nil
	default:
		return Untypable, &UntypableError{Node: n, Reason: "sample of a non-distribution"}
	}
}
