package rewrite

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/fixpoint/internal/graph"
	"github.com/roach88/fixpoint/internal/lattice"
)

// Pipeline runs an ordered sequence of fixers, each to its own
// fixpoint, over one shared graph and type oracle.
//
// Order is significant and preserved exactly: later fixers see only
// the output of all earlier fixers. Some fixers establish a normal
// form a later fixer's pattern depends on (the n-ary addition
// normalizer must precede the log-sum-exp fixer).
//
// The pipeline exclusively owns the graph for the duration of Run; the
// graph is not safe for concurrent mutation.
type Pipeline struct {
	fixers    []Fixer
	typer     *lattice.Typer
	maxPasses int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineMaxPasses sets the per-fixer pass ceiling for every
// engine the pipeline creates.
func WithPipelineMaxPasses(n int) PipelineOption {
	return func(p *Pipeline) {
		p.maxPasses = n
	}
}

// NewPipeline creates a pipeline over the given fixers, in order.
// The fixers slice is copied to prevent external mutation from
// changing evaluation order mid-run.
func NewPipeline(typer *lattice.Typer, fixers []Fixer, opts ...PipelineOption) *Pipeline {
	fixersCopy := make([]Fixer, len(fixers))
	copy(fixersCopy, fixers)

	p := &Pipeline{fixers: fixersCopy, typer: typer}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fixers returns the configured fixers in pipeline order.
// Used for introspection and reporting.
func (p *Pipeline) Fixers() []Fixer {
	out := make([]Fixer, len(p.fixers))
	copy(out, p.fixers)
	return out
}

// Run drives every fixer to fixpoint, strictly in list order.
//
// Returns the aggregated Result, or the first fatal error. On error
// the run is aborted immediately: there is no partial, best-effort
// result.
func (p *Pipeline) Run(g *graph.Graph) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}

	slog.Info("pipeline starting",
		"run_id", result.RunID,
		"fixers", len(p.fixers),
		"nodes", g.Len(),
	)

	for _, f := range p.fixers {
		engine := NewEngine(f, p.typer, WithMaxPasses(p.maxPasses))
		report, err := engine.Run(g)
		if err != nil {
			slog.Error("pipeline aborted",
				"run_id", result.RunID,
				"fixer", f.Name(),
				"error", err,
			)
			return nil, err
		}

		slog.Info("fixer reached fixpoint",
			"run_id", result.RunID,
			"fixer", f.Name(),
			"passes", report.Passes,
			"replacements", report.Replacements,
			"nodes", g.Len(),
		)

		result.Reports = append(result.Reports, *report)
		result.Replacements += report.Replacements
	}

	return result, nil
}
