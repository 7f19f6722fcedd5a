package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/graph"
)

// TestSup tests the lattice join over the scalar diamond.
func TestSup(t *testing.T) {
	assert.Equal(t, Real, Sup(Probability, Real))
	assert.Equal(t, PositiveReal, Sup(Natural, Probability), "incomparable pair joins at POSITIVE_REAL")
	assert.Equal(t, Probability, Sup(Boolean, Probability))
	assert.Equal(t, Natural, Sup(Natural, Natural))
	assert.Equal(t, Untypable, Sup(Distribution, Real))
	assert.Equal(t, Untypable, Sup(Untypable, Boolean))
}

// TestTypeOf_Constants tests value-based constant classification.
func TestTypeOf_Constants(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)
	typer := NewTyper(g)

	cases := []struct {
		value float64
		want  Type
	}{
		{0, Boolean},
		{1, Boolean},
		{3, Natural},
		{0.25, Probability},
		{2.5, PositiveReal},
		{-1, Real},
	}
	for _, tc := range cases {
		ty, err := typer.TypeOf(b.AddConstant(tc.value))
		require.NoError(t, err)
		assert.Equal(t, tc.want, ty, "constant %v", tc.value)
	}
}

// TestTypeOf_Operators tests bottom-up derivation through operators.
func TestTypeOf_Operators(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)
	typer := NewTyper(g)

	p := b.AddConstant(0.25)
	q := b.AddConstant(0.75)

	sum, err := b.AddAdd(p, q)
	require.NoError(t, err)
	ty, err := typer.TypeOf(sum)
	require.NoError(t, err)
	assert.Equal(t, PositiveReal, ty, "probabilities sum past the unit interval")

	prod, err := b.AddMultiply(p, q)
	require.NoError(t, err)
	ty, err = typer.TypeOf(prod)
	require.NoError(t, err)
	assert.Equal(t, Probability, ty, "probabilities are closed under product")

	e, err := b.AddExp(b.AddConstant(-3))
	require.NoError(t, err)
	ty, err = typer.TypeOf(e)
	require.NoError(t, err)
	assert.Equal(t, PositiveReal, ty)

	l, err := b.AddLog(e)
	require.NoError(t, err)
	ty, err = typer.TypeOf(l)
	require.NoError(t, err)
	assert.Equal(t, Real, ty)
}

// TestTypeOf_Samples tests sample classification by distribution kind.
func TestTypeOf_Samples(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)
	typer := NewTyper(g)

	beta, err := b.AddBeta(b.AddConstant(2), b.AddConstant(2))
	require.NoError(t, err)
	x, err := b.AddSample(beta, "x")
	require.NoError(t, err)

	ty, err := typer.TypeOf(x)
	require.NoError(t, err)
	assert.Equal(t, Probability, ty)

	bern, err := b.AddBernoulli(x)
	require.NoError(t, err)
	y, err := b.AddSample(bern, "y")
	require.NoError(t, err)

	ty, err = typer.TypeOf(y)
	require.NoError(t, err)
	assert.Equal(t, Boolean, ty)

	ty, err = typer.TypeOf(beta)
	require.NoError(t, err)
	assert.Equal(t, Distribution, ty)
}

// TestTypeOf_LogOfRealIsUntypable tests the conservative failure path
// fixers rely on: classification failure, not a crash.
func TestTypeOf_LogOfRealIsUntypable(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)
	typer := NewTyper(g)

	neg := b.AddConstant(-2)
	l, err := b.AddLog(neg)
	require.NoError(t, err)

	ty, err := typer.TypeOf(l)
	assert.Equal(t, Untypable, ty)
	assert.True(t, IsUntypable(err))
}

// TestInvalidate_ClearsTransitiveConsumers tests that invalidating an
// ancestor clears every downstream memo entry but nothing else.
func TestInvalidate_ClearsTransitiveConsumers(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)
	typer := NewTyper(g)

	a := b.AddConstant(0.5)
	e, err := b.AddExp(a)
	require.NoError(t, err)
	l, err := b.AddLog(e)
	require.NoError(t, err)
	other := b.AddConstant(3)

	for _, n := range []*graph.Node{l, other} {
		_, err := typer.TypeOf(n)
		require.NoError(t, err)
	}
	require.Equal(t, 4, typer.MemoSize())

	typer.Invalidate(a)
	assert.Equal(t, 1, typer.MemoSize(), "only the unrelated constant stays memoized")

	// Re-derivation still works after invalidation.
	ty, err := typer.TypeOf(l)
	require.NoError(t, err)
	assert.Equal(t, Real, ty)
}

// TestInvalidate_DropsReleasedNodes tests that memo entries for nodes
// a replacement released are swept out, not pinned for the typer's
// lifetime.
func TestInvalidate_DropsReleasedNodes(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)
	typer := NewTyper(g)

	a := b.AddConstant(0.5)
	e1, err := b.AddExp(a)
	require.NoError(t, err)
	q1, err := b.AddQuery(e1, "q1")
	require.NoError(t, err)
	neg, err := b.AddNegate(a)
	require.NoError(t, err)
	q2, err := b.AddQuery(neg, "q2")
	require.NoError(t, err)

	for _, n := range []*graph.Node{q1, q2} {
		_, err := typer.TypeOf(n)
		require.NoError(t, err)
	}
	require.Equal(t, 5, typer.MemoSize())

	// Swap e1 out from under q1; e1 has no other consumer and is
	// released. The constant survives through neg.
	c2 := b.AddConstant(2)
	_, err = g.Replace(e1, c2)
	require.NoError(t, err)
	require.False(t, g.Contains(e1))

	typer.Invalidate(c2)
	assert.Equal(t, 3, typer.MemoSize(), "released node must leave the memo")

	ty, err := typer.TypeOf(q1)
	require.NoError(t, err)
	assert.Equal(t, Natural, ty)
}
