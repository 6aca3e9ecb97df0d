package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cellgraph/internal/store"
)

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Tasks []TraceTask       `json:"tasks"`
	Deps  []store.DepRecord `json:"deps"`
}

// TraceTask is one task with its persisted cells.
type TraceTask struct {
	ID    uint32             `json:"id"`
	Key   string             `json:"key,omitempty"`
	Name  string             `json:"name"`
	Cells []store.CellRecord `json:"cells"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <db-path>",
		Short: "Dump the persisted task and cell graph",
		Long: `Read a database produced by run --db and print every task record,
its cell snapshots and the dependency edges between tasks.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTrace(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	tasks, err := st.ReadTasks(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read tasks", err)
	}
	deps, err := st.ReadDeps(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read deps", err)
	}

	result := TraceResult{Deps: deps}
	for _, t := range tasks {
		cells, err := st.ReadCells(ctx, t.ID)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read cells", err)
		}
		result.Tasks = append(result.Tasks, TraceTask{
			ID:    t.ID,
			Key:   t.Key,
			Name:  t.Name,
			Cells: cells,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, t := range result.Tasks {
		fmt.Fprintf(formatter.Writer, "task %d %s\n", t.ID, t.Name)
		if t.Key != "" {
			fmt.Fprintf(formatter.Writer, "  key %s\n", t.Key)
		}
		for _, c := range t.Cells {
			fmt.Fprintf(formatter.Writer, "  cell type=%d index=%d hash=%s payload=%s\n",
				c.TypeID, c.Index, c.ContentHash, c.Payload)
		}
	}
	if len(result.Deps) > 0 {
		fmt.Fprintln(formatter.Writer, "deps:")
		for _, d := range result.Deps {
			fmt.Fprintf(formatter.Writer, "  %d -> %d\n", d.Src, d.Dst)
		}
	}
	return nil
}
