package cli

import (
	"fmt"
	"os"

	"github.com/roach88/cellgraph/internal/compiler"
)

// LoadGraph reads and compiles a CUE graph definition file.
func LoadGraph(path string) (*compiler.GraphSpec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("graph file not found: %s", path))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error accessing graph file", err)
	}
	if info.IsDir() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("not a file: %s", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read graph file", err)
	}

	spec, err := compiler.CompileSource(path, string(data))
	if err != nil {
		return nil, WrapExitError(ExitFailure, "compile graph", err)
	}
	return spec, nil
}
