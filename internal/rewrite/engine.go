package rewrite

import (
	"errors"
	"log/slog"

	"github.com/roach88/fixpoint/internal/graph"
	"github.com/roach88/fixpoint/internal/lattice"
)

// Engine runs a single fixer over a graph to fixpoint.
//
// Each pass walks the graph in its fixed topological order (inputs
// before consumers) and replaces every match. Passes repeat until one
// performs zero replacements: NeedsFixing sees the current graph
// state, so an earlier replacement can change what a later node sees
// as its inputs, and a replacement node can itself become the operand
// of a still-pending pattern.
//
// Running the engine on an already-fixed-point graph performs zero
// replacements: re-running is always a no-op for a correct fixer.
type Engine struct {
	fixer     Fixer
	typer     *lattice.Typer
	maxPasses int // 0 means derive from graph size
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPasses overrides the defensive pass ceiling.
//
// The default ceiling is derived from graph size at Run time. Use a
// small value in tests that provoke termination failures.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		e.maxPasses = n
	}
}

// NewEngine creates an engine binding one fixer to the shared type
// oracle.
func NewEngine(f Fixer, typer *lattice.Typer, opts ...Option) *Engine {
	e := &Engine{fixer: f, typer: typer}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives the fixer to fixpoint on g.
//
// Returns a Report on success. Any error is fatal: the fixer broke
// its contract, introduced a cycle, or failed to terminate, and the
// graph must not be handed downstream.
func (e *Engine) Run(g *graph.Graph) (*Report, error) {
	limit := e.maxPasses
	if limit <= 0 {
		limit = defaultPassLimit(g.Len())
	}

	report := &Report{Fixer: e.fixer.Name()}
	for {
		if report.Passes >= limit {
			slog.Error("fixer failed to converge",
				"fixer", e.fixer.Name(),
				"passes", report.Passes,
				"limit", limit,
			)
			return nil, NewPassLimitError(e.fixer.Name(), report.Passes)
		}

		replaced, err := e.runPass(g)
		if err != nil {
			return nil, err
		}

		report.Passes++
		report.PerPass = append(report.PerPass, replaced)
		report.Replacements += replaced

		slog.Debug("rewrite pass complete",
			"fixer", e.fixer.Name(),
			"pass", report.Passes,
			"replacements", replaced,
			"nodes", g.Len(),
		)

		if replaced == 0 {
			return report, nil
		}
	}
}

// runPass performs one full topological sweep, replacing every match.
func (e *Engine) runPass(g *graph.Graph) (int, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		// Unreachable unless a prior mutation corrupted the graph.
		return 0, NewCycleError(e.fixer.Name(), "")
	}

	replaced := 0
	for _, n := range order {
		// An earlier replacement in this pass may have released n.
		if !g.Contains(n) {
			continue
		}
		if !e.fixer.NeedsFixing(g, n) {
			continue
		}

		replacement, err := e.fixer.GetReplacement(g, n)
		if err != nil {
			return 0, NewContractError(e.fixer.Name(), n.String(), err.Error())
		}
		if replacement == nil {
			return 0, NewContractError(e.fixer.Name(), n.String(),
				"NeedsFixing matched but GetReplacement produced no node")
		}
		if replacement == n {
			// Same identity: nothing to splice. A fixer doing this
			// while still matching would spin; the pass ceiling
			// catches it.
			continue
		}

		if _, err := g.Replace(n, replacement); err != nil {
			if errors.Is(err, graph.ErrCycle) {
				return 0, NewCycleError(e.fixer.Name(), n.String())
			}
			return 0, NewContractError(e.fixer.Name(), n.String(), err.Error())
		}

		// The consumers rewired to the replacement are exactly the
		// former consumers of n, so invalidating both nodes clears
		// every stale classification, former and new, transitively.
		e.typer.Invalidate(n)
		e.typer.Invalidate(replacement)

		slog.Debug("node replaced",
			"fixer", e.fixer.Name(),
			"old", n.String(),
			"new", replacement.String(),
		)
		replaced++
	}
	return replaced, nil
}

// defaultPassLimit bounds the fixpoint loop for a graph of the given
// size. Every correct fixer shrinks a measure bounded by node count,
// so this ceiling is generous; hitting it means the fixer oscillates.
func defaultPassLimit(nodes int) int {
	return 2*nodes + 8
}
