package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cellgraph/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Graph  string                     `json:"graph,omitempty"`
	Tasks  int                        `json:"tasks,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph.cue>",
		Short: "Compile and validate a graph definition",
		Long: `Compile a CUE graph definition and check it against structural rules:
unique task names, known ops, declared inputs, acyclic dependencies.
No tasks are executed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	spec, err := LoadGraph(path)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeCompile, exitErr.Error(), nil)
			return err
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load graph", err)
	}

	formatter.VerboseLog("Compiled graph %q with %d task(s)", spec.Name, len(spec.Tasks))

	if verrs := compiler.Validate(spec); len(verrs) > 0 {
		return outputValidationErrors(formatter, spec, verrs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid: true,
			Graph: spec.Name,
			Tasks: len(spec.Tasks),
		})
	}
	fmt.Fprintf(formatter.Writer, "graph %q valid (%d tasks)\n", spec.Name, len(spec.Tasks))
	return nil
}

// outputValidationErrors renders validation failures and returns the
// matching ExitError.
func outputValidationErrors(formatter *OutputFormatter, spec *compiler.GraphSpec, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		_ = formatter.Success(ValidationResult{
			Valid:  false,
			Graph:  spec.Name,
			Errors: errs,
		})
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "graph %q invalid\n\n", spec.Name)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
