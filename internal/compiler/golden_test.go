package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/fixers"
	"github.com/roach88/fixpoint/internal/lattice"
	"github.com/roach88/fixpoint/internal/rewrite"
)

// TestGolden_Mixture compiles the mixture model from testdata and
// checks the canonical dump before and after the default pipeline
// against golden files.
//
// To regenerate golden files, run:
//
//	go test ./internal/compiler -update
func TestGolden_Mixture(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "mixture.cue"))
	require.NoError(t, err)

	ctx := cuecontext.New()
	v := ctx.CompileString(string(src), cue.Filename("mixture.cue"))
	require.NoError(t, v.Err())

	spec, err := CompileModel(v.LookupPath(cue.ParsePath("model.mixture")))
	require.NoError(t, err)

	g, _, err := BuildGraph(spec)
	require.NoError(t, err)

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	source, err := g.Dump()
	require.NoError(t, err)
	gold.Assert(t, "mixture_source", source)

	typer := lattice.NewTyper(g)
	_, err = rewrite.NewPipeline(typer, fixers.Default(typer)).Run(g)
	require.NoError(t, err)

	compiled, err := g.Dump()
	require.NoError(t, err)
	gold.Assert(t, "mixture_compiled", compiled)
}
