package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fixpoint/internal/compiler"
	"github.com/roach88/fixpoint/internal/graph"
	"github.com/roach88/fixpoint/internal/lattice"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationReport summarizes a type-checked model.
type ValidationReport struct {
	Model   string            `json:"model"`
	Nodes   int               `json:"nodes"`
	Queries map[string]string `json:"queries"` // query label -> derived type
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <model.cue>",
		Short: "Compile a model and type-check it without rewriting",
		Long: `Compile a CUE model to a computation graph and derive a lattice
type for every node.

A model whose nodes all classify passes; an unclassifiable node fails
validation. No rewriting is performed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	specs, err := LoadModels(path)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	var reports []ValidationReport
	for _, spec := range specs {
		report, err := validateModel(spec)
		if err != nil {
			code, message := classifyError(err)
			// An untypable model is a validation failure, not a
			// command error.
			exitCode := ExitCommandError
			if lattice.IsUntypable(err) {
				exitCode = ExitFailure
			}
			return outputCompileError(formatter, code,
				fmt.Sprintf("model %s: %s", spec.Name, message), exitCode)
		}
		reports = append(reports, report)
	}

	if formatter.Format == "json" {
		return formatter.Success(reports)
	}

	fmt.Fprintf(formatter.Writer, "✓ Validated %d model(s)\n\n", len(reports))
	for _, r := range reports {
		fmt.Fprintf(formatter.Writer, "%s: %d node(s) typed\n", r.Model, r.Nodes)
		for label, typ := range r.Queries {
			fmt.Fprintf(formatter.Writer, "  query %s: %s\n", label, typ)
		}
	}
	return nil
}

// validateModel builds the graph and derives a type for every node in
// topological order, so errors name the shallowest failing node.
func validateModel(spec *compiler.ModelSpec) (ValidationReport, error) {
	g, _, err := compiler.BuildGraph(spec)
	if err != nil {
		return ValidationReport{}, err
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return ValidationReport{}, err
	}

	typer := lattice.NewTyper(g)
	queries := make(map[string]string)
	for _, n := range order {
		typ, err := typer.TypeOf(n)
		if err != nil {
			return ValidationReport{}, err
		}
		if n.Kind() == graph.KindQuery {
			queries[n.Label()] = typ.String()
		}
	}

	return ValidationReport{
		Model:   spec.Name,
		Nodes:   g.Len(),
		Queries: queries,
	}, nil
}
