package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fixpoint/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Model string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded rewrite runs",
		Long: `List runs recorded by compile --db, oldest first. Each entry shows
the run token, model name, source and result graph hashes, and
per-fixer replacement counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite store path (required)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only show runs for this model")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs to show (0 = all)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return outputCompileError(formatter, ErrCodeNotFound,
			fmt.Sprintf("store not found: %s", opts.DB), ExitCommandError)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		return outputCompileError(formatter, ErrCodeStoreFailed, err.Error(), ExitCommandError)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), opts.Model, opts.Limit)
	if err != nil {
		return outputCompileError(formatter, ErrCodeStoreFailed, err.Error(), ExitCommandError)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}

	fmt.Fprintf(formatter.Writer, "%d run(s)\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  %d replacement(s)\n", run.ID, run.Model, run.Replacements)
		for _, rw := range run.Rewrites {
			fmt.Fprintf(formatter.Writer, "  %s: %d pass(es), %d replacement(s)\n", rw.Fixer, rw.Passes, rw.Replacements)
		}
		fmt.Fprintf(formatter.Writer, "  source %s\n  result %s\n", run.SourceHash, run.ResultHash)
	}

	return nil
}
