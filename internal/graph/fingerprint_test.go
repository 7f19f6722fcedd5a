package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDump_StructurallyIdenticalGraphsMatch tests that two separately
// constructed graphs with the same shape dump to identical bytes and
// hash equal, even though their nodes have different pointers.
func TestDump_StructurallyIdenticalGraphsMatch(t *testing.T) {
	build := func() *Graph {
		g := New()
		b := NewBuilder(g)
		a := b.AddConstant(0.5)
		e, err := b.AddExp(a)
		require.NoError(t, err)
		_, err = b.AddQuery(e, "posterior")
		require.NoError(t, err)
		return g
	}

	g1, g2 := build(), build()

	d1, err := g1.Dump()
	require.NoError(t, err)
	d2, err := g2.Dump()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	h1, err := g1.Hash()
	require.NoError(t, err)
	h2, err := g2.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

// TestDump_IsValidJSON tests that the hand-built canonical encoding
// parses as JSON.
func TestDump_IsValidJSON(t *testing.T) {
	g, _, _, _, _, _, _ := buildLogSumPattern(t)

	dump, err := g.Dump()
	require.NoError(t, err)

	var decoded struct {
		Nodes []struct {
			Inputs []int  `json:"inputs"`
			Kind   string `json:"kind"`
			Label  string `json:"label"`
			Value  string `json:"value"`
		} `json:"nodes"`
		Roots []int `json:"roots"`
	}
	require.NoError(t, json.Unmarshal(dump, &decoded))
	assert.Len(t, decoded.Nodes, g.Len())
	require.Len(t, decoded.Roots, 1)
	assert.Equal(t, "QUERY", decoded.Nodes[decoded.Roots[0]].Kind)
}

// TestHash_ChangesWithStructure tests that a rewrite changes the
// content-addressed identity.
func TestHash_ChangesWithStructure(t *testing.T) {
	g, b, operands, _, _, log, _ := buildLogSumPattern(t)

	before, err := g.Hash()
	require.NoError(t, err)

	lse, err := b.AddLogSumExp(operands[0], operands[1], operands[2])
	require.NoError(t, err)
	_, err = g.Replace(log, lse)
	require.NoError(t, err)

	after, err := g.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

// TestFormatValue tests the stable shortest round-trip rendering.
func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.5", formatValue(0.5))
	assert.Equal(t, "2", formatValue(2))
	assert.Equal(t, "-1.25", formatValue(-1.25))
}
