package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/cellgraph/internal/engine"
	"github.com/roach88/cellgraph/internal/harness"
	"github.com/roach88/cellgraph/internal/store"
)

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Graph       string         `json:"graph"`
	Outputs     map[string]any `json:"outputs"`
	Diagnostics []string       `json:"diagnostics"`
	Tasks       int            `json:"tasks"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "run <graph.cue>",
		Short: "Execute a graph definition",
		Long: `Compile a CUE graph definition, execute it on the engine and print
each task's output. With --db (or db in the config file), task records,
cells and dependency edges are persisted for later inspection with
the trace command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, args[0], dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")

	return cmd
}

func runRun(opts *RootOptions, path, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	spec, err := LoadGraph(path)
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return err
	}

	if dbPath == "" {
		dbPath = opts.Config.DB
	}

	var engOpts []engine.Option
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open store", err)
		}
		defer st.Close()
		engOpts = append(engOpts, engine.WithStore(st))
		formatter.VerboseLog("Persisting to %s", dbPath)
	}

	eng := engine.New(engOpts...)
	result, err := harness.Execute(cmd.Context(), eng, spec)
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "execute graph", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RunResult{
			Graph:       result.Graph,
			Outputs:     result.Outputs,
			Diagnostics: result.Diagnostics,
			Tasks:       len(spec.Tasks),
		})
	}

	fmt.Fprintf(formatter.Writer, "graph %q (%d tasks)\n", result.Graph, len(spec.Tasks))
	names := make([]string, 0, len(result.Outputs))
	for name := range result.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "  %s = %v\n", name, result.Outputs[name])
	}
	if len(result.Diagnostics) > 0 {
		fmt.Fprintln(formatter.Writer, "diagnostics:")
		for _, d := range result.Diagnostics {
			fmt.Fprintf(formatter.Writer, "  %s\n", d)
		}
	}
	return nil
}
