package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fixpoint/internal/compiler"
	"github.com/roach88/fixpoint/internal/fixers"
	"github.com/roach88/fixpoint/internal/graph"
	"github.com/roach88/fixpoint/internal/lattice"
	"github.com/roach88/fixpoint/internal/rewrite"
	"github.com/roach88/fixpoint/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // compiled dump file path
	DB       string // run store path
	Pipeline string // YAML pipeline config path
}

// CompileReport summarizes one compiled model for CLI output.
type CompileReport struct {
	Model        string           `json:"model"`
	RunID        string           `json:"run_id"`
	SourceHash   string           `json:"source_hash"`
	ResultHash   string           `json:"result_hash"`
	Nodes        int              `json:"nodes"`
	Replacements int              `json:"replacements"`
	Fixers       []rewrite.Report `json:"fixers"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <model.cue>",
		Short: "Compile a model and rewrite its graph to fixpoint",
		Long: `Compile a CUE model to a computation graph and run the fixer
pipeline to fixpoint.

Prints per-fixer pass and replacement counts plus the content hashes of
the source and result graphs. The result hash is stable: recompiling an
unchanged model always produces the same hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled canonical dump to a file")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in a SQLite store")
	cmd.Flags().StringVar(&opts.Pipeline, "pipeline", "", "YAML pipeline config (fixer list, max passes)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	specs, err := LoadModels(path)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d model(s) from %s", len(specs), path)

	if opts.Output != "" && len(specs) != 1 {
		return outputCompileError(formatter, ErrCodeWriteFailed,
			fmt.Sprintf("--output requires exactly one model, file defines %d", len(specs)), ExitCommandError)
	}

	cfg := &rewrite.Config{}
	if opts.Pipeline != "" {
		cfg, err = rewrite.LoadConfig(opts.Pipeline)
		if err != nil {
			return outputCompileError(formatter, ErrCodeBadPipeline, err.Error(), ExitCommandError)
		}
	}
	// Registry lookup against a scratch typer; per-model pipelines are
	// resolved again with the model's own typer.
	if _, err := fixers.Resolve(cfg.Fixers, lattice.NewTyper(graph.New())); err != nil {
		return outputCompileError(formatter, ErrCodeBadPipeline, err.Error(), ExitCommandError)
	}

	var runStore *store.Store
	if opts.DB != "" {
		runStore, err = store.Open(opts.DB)
		if err != nil {
			return outputCompileError(formatter, ErrCodeStoreFailed, err.Error(), ExitCommandError)
		}
		defer runStore.Close()
	}

	var reports []CompileReport
	var lastDump []byte
	for _, spec := range specs {
		formatter.VerboseLog("Compiling model: %s", spec.Name)

		report, resultDump, err := compileModel(cmd.Context(), spec, cfg, runStore)
		if err != nil {
			return outputModelError(formatter, spec.Name, err)
		}
		reports = append(reports, report)
		lastDump = resultDump
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, lastDump, 0644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed,
				fmt.Sprintf("writing output file: %v", err), ExitCommandError)
		}
	}

	return outputCompileSuccess(formatter, reports, opts.Output)
}

// compileModel builds one model's graph, runs the pipeline to
// fixpoint, and optionally records the run.
func compileModel(ctx context.Context, spec *compiler.ModelSpec, cfg *rewrite.Config, runStore *store.Store) (CompileReport, []byte, error) {
	g, _, err := compiler.BuildGraph(spec)
	if err != nil {
		return CompileReport{}, nil, err
	}

	sourceDump, err := g.Dump()
	if err != nil {
		return CompileReport{}, nil, err
	}
	sourceHash, err := g.Hash()
	if err != nil {
		return CompileReport{}, nil, err
	}

	typer := lattice.NewTyper(g)
	pipeline, err := fixers.Resolve(cfg.Fixers, typer)
	if err != nil {
		return CompileReport{}, nil, err
	}

	var opts []rewrite.PipelineOption
	if cfg.MaxPasses > 0 {
		opts = append(opts, rewrite.WithPipelineMaxPasses(cfg.MaxPasses))
	}

	result, err := rewrite.NewPipeline(typer, pipeline, opts...).Run(g)
	if err != nil {
		return CompileReport{}, nil, err
	}

	resultDump, err := g.Dump()
	if err != nil {
		return CompileReport{}, nil, err
	}
	resultHash, err := g.Hash()
	if err != nil {
		return CompileReport{}, nil, err
	}

	report := CompileReport{
		Model:        spec.Name,
		RunID:        result.RunID,
		SourceHash:   sourceHash,
		ResultHash:   resultHash,
		Nodes:        g.Len(),
		Replacements: result.Replacements,
		Fixers:       result.Reports,
	}

	if runStore != nil {
		run := store.Run{
			ID:           result.RunID,
			Model:        spec.Name,
			SourceHash:   sourceHash,
			ResultHash:   resultHash,
			Replacements: result.Replacements,
		}
		for _, r := range result.Reports {
			run.Rewrites = append(run.Rewrites, store.Rewrite{
				Fixer:        r.Fixer,
				Passes:       r.Passes,
				Replacements: r.Replacements,
			})
		}
		if err := runStore.WriteRun(ctx, run, sourceDump, resultDump); err != nil {
			return CompileReport{}, nil, err
		}
	}

	return report, resultDump, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, reports []CompileReport, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(reports)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d model(s)\n\n", len(reports))
	for _, r := range reports {
		fmt.Fprintf(formatter.Writer, "%s: %d node(s), %d replacement(s)\n", r.Model, r.Nodes, r.Replacements)
		for _, f := range r.Fixers {
			fmt.Fprintf(formatter.Writer, "  %s: %d pass(es), %d replacement(s)\n", f.Fixer, f.Passes, f.Replacements)
		}
		fmt.Fprintf(formatter.Writer, "  source %s\n  result %s\n", r.SourceHash, r.ResultHash)
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote compiled dump to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single error with an explicit exit code.
func outputCompileError(formatter *OutputFormatter, code, message string, exitCode int) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

// outputCommandError reports a load/compile error. These are
// command-level errors (exit code 2).
func outputCommandError(formatter *OutputFormatter, err error) error {
	code, message := classifyError(err)
	return outputCompileError(formatter, code, message, ExitCommandError)
}

// outputModelError reports a failure while processing one model.
// Rewrite failures are model failures (exit code 1); everything else
// is a command error.
func outputModelError(formatter *OutputFormatter, model string, err error) error {
	code, message := classifyError(err)
	exitCode := ExitCommandError
	var rewriteErr *rewrite.RewriteError
	if errors.As(err, &rewriteErr) {
		exitCode = ExitFailure
	}
	return outputCompileError(formatter, code, fmt.Sprintf("model %s: %s", model, message), exitCode)
}

// classifyError maps an error to a CLI error code and message.
func classifyError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return ErrCodeCompileFailed, compileErr.Error()
	}
	var rewriteErr *rewrite.RewriteError
	if errors.As(err, &rewriteErr) {
		return ErrCodeRewriteFailed, rewriteErr.Error()
	}
	if lattice.IsUntypable(err) {
		return ErrCodeUntypable, err.Error()
	}
	if errors.Is(err, graph.ErrCycle) {
		return ErrCodeCompileFailed, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}
