package fixers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/graph"
	"github.com/roach88/fixpoint/internal/lattice"
	"github.com/roach88/fixpoint/internal/rewrite"
)

// buildFlatPattern builds Query(Log(MultiAdd(Exp(a), Exp(b), Exp(c))))
// over three distinct constants.
func buildFlatPattern(t *testing.T) (g *graph.Graph, b *graph.Builder, operands [3]*graph.Node, exps [3]*graph.Node, log, query *graph.Node) {
	t.Helper()
	g = graph.New()
	b = graph.NewBuilder(g)

	values := [3]float64{0.5, 1.5, 2.5}
	var err error
	for i, v := range values {
		operands[i] = b.AddConstant(v)
	}
	for i, op := range operands {
		exps[i], err = b.AddExp(op)
		require.NoError(t, err)
	}

	sum, err := b.AddMultiAdd(exps[0], exps[1], exps[2])
	require.NoError(t, err)
	log, err = b.AddLog(sum)
	require.NoError(t, err)
	query, err = b.AddQuery(log, "total")
	require.NoError(t, err)
	return
}

// TestLogSumExp_StructuralCorrectness tests the worked example: the
// Log collapses to a single LogSumExp over the Exp operands in
// MultiAdd input order, and the whole old pattern is released.
func TestLogSumExp_StructuralCorrectness(t *testing.T) {
	g, _, operands, exps, log, query := buildFlatPattern(t)
	typer := lattice.NewTyper(g)

	report, err := rewrite.NewEngine(NewLogSumExp(typer), typer).Run(g)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replacements)

	lse := query.Input(0)
	require.Equal(t, graph.KindLogSumExp, lse.Kind())
	require.Equal(t, 3, lse.NumInputs())
	for i, op := range operands {
		assert.Same(t, op, lse.Input(i), "operand order must match the MultiAdd input order")
	}

	assert.False(t, g.Contains(log))
	for _, e := range exps {
		assert.False(t, g.Contains(e), "%s had no other consumer and must be gone", e)
	}
	assert.Equal(t, 5, g.Len(), "three constants, the LogSumExp, the query")
}

// TestLogSumExp_NonApplication tests that a sum mixing an exponential
// with a constant does not match and the graph is unchanged.
func TestLogSumExp_NonApplication(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)

	e, err := b.AddExp(b.AddConstant(0.5))
	require.NoError(t, err)
	sum, err := b.AddMultiAdd(e, b.AddConstant(5))
	require.NoError(t, err)
	log, err := b.AddLog(sum)
	require.NoError(t, err)
	_, err = b.AddQuery(log, "total")
	require.NoError(t, err)

	typer := lattice.NewTyper(g)
	fixer := NewLogSumExp(typer)
	assert.False(t, fixer.NeedsFixing(g, log))

	before, err := g.Hash()
	require.NoError(t, err)

	report, err := rewrite.NewEngine(fixer, typer).Run(g)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Replacements)

	after, err := g.Hash()
	require.NoError(t, err)
	assert.Equal(t, before, after, "non-application must leave the graph byte-identical")
}

// TestLogSumExp_SharingPreserved tests that an Exp with a consumer
// outside the pattern keeps that consumer, while its operand gains the
// LogSumExp as a new consumer.
func TestLogSumExp_SharingPreserved(t *testing.T) {
	g, b, operands, exps, _, query := buildFlatPattern(t)

	external, err := b.AddNegate(exps[0])
	require.NoError(t, err)
	_, err = b.AddQuery(external, "side")
	require.NoError(t, err)

	typer := lattice.NewTyper(g)
	_, err = rewrite.NewEngine(NewLogSumExp(typer), typer).Run(g)
	require.NoError(t, err)

	// Exp(a) survives through the external consumer, untouched.
	require.True(t, g.Contains(exps[0]))
	assert.Same(t, exps[0], external.Input(0))
	assert.Equal(t, []*graph.Node{external}, g.ConsumersOf(exps[0]))

	// a itself now also feeds the LogSumExp.
	lse := query.Input(0)
	require.Equal(t, graph.KindLogSumExp, lse.Kind())
	assert.Contains(t, g.ConsumersOf(operands[0]), lse)
	assert.Contains(t, g.ConsumersOf(operands[0]), exps[0])

	// The unshared exps are gone.
	assert.False(t, g.Contains(exps[1]))
	assert.False(t, g.Contains(exps[2]))
}

// TestLogSumExp_Idempotence tests that a second engine run performs
// zero replacements.
func TestLogSumExp_Idempotence(t *testing.T) {
	g, _, _, _, _, _ := buildFlatPattern(t)
	typer := lattice.NewTyper(g)
	engine := rewrite.NewEngine(NewLogSumExp(typer), typer)

	first, err := engine.Run(g)
	require.NoError(t, err)
	require.Equal(t, 1, first.Replacements)

	second, err := engine.Run(g)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Replacements)
}

// TestLogSumExp_UntypableOperandDeclines tests the conservative oracle
// rule: an unclassifiable operand means the pattern does not apply.
func TestLogSumExp_UntypableOperandDeclines(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)

	// log(-2) is untypable; exp(log(-2)) poisons the first term.
	bad, err := b.AddLog(b.AddConstant(-2))
	require.NoError(t, err)
	e1, err := b.AddExp(bad)
	require.NoError(t, err)
	e2, err := b.AddExp(b.AddConstant(1.5))
	require.NoError(t, err)
	sum, err := b.AddMultiAdd(e1, e2)
	require.NoError(t, err)
	log, err := b.AddLog(sum)
	require.NoError(t, err)
	_, err = b.AddQuery(log, "total")
	require.NoError(t, err)

	typer := lattice.NewTyper(g)
	fixer := NewLogSumExp(typer)
	assert.False(t, fixer.NeedsFixing(g, log))

	report, err := rewrite.NewEngine(fixer, typer).Run(g)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Replacements)
}

// TestLogSumExp_TwoTermSum tests the minimum pattern width.
func TestLogSumExp_TwoTermSum(t *testing.T) {
	g := graph.New()
	b := graph.NewBuilder(g)

	a := b.AddConstant(0.25)
	c := b.AddConstant(0.75)
	ea, err := b.AddExp(a)
	require.NoError(t, err)
	ec, err := b.AddExp(c)
	require.NoError(t, err)
	sum, err := b.AddMultiAdd(ea, ec)
	require.NoError(t, err)
	log, err := b.AddLog(sum)
	require.NoError(t, err)
	q, err := b.AddQuery(log, "total")
	require.NoError(t, err)

	typer := lattice.NewTyper(g)
	_, err = rewrite.NewEngine(NewLogSumExp(typer), typer).Run(g)
	require.NoError(t, err)

	lse := q.Input(0)
	require.Equal(t, graph.KindLogSumExp, lse.Kind())
	assert.Same(t, a, lse.Input(0))
	assert.Same(t, c, lse.Input(1))
}
