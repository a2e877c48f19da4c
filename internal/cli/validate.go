package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chainsim/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files without running them.

Each path is a scenario file or a directory of scenario files. Validation
parses the file (YAML or CUE), checks names, permissions and action data,
and checks every assertion is well formed. No blockchain is created.

Exit codes:
  0 - All scenario files are valid
  1 - One or more scenario files are invalid
  2 - Command error (path not found, empty directory)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	files, err := expandScenarioPaths(paths)
	if err != nil {
		code := ErrCodeNotFound
		var notFound *harness.ScenarioNotFoundError
		if errors.As(err, &notFound) {
			code = ErrCodeNoScenarios
		}
		if opts.Format == "json" {
			_ = formatter.Error(code, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "cannot validate", err)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, path := range files {
		fv := FileValidation{Path: path, Valid: true}
		s, err := harness.LoadScenario(path)
		if err != nil {
			fv.Valid = false
			fv.Error = err.Error()
			result.Valid = false
		} else {
			fv.Name = s.Name
			formatter.VerboseLog("%s: %d transaction(s), %d assertion(s)", path, len(s.Transactions), len(s.Assertions))
		}
		result.Files = append(result.Files, fv)
	}

	if opts.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		_ = formatter.Error(ErrCodeLoadFailed, "scenario validation failed", result)
		return NewExitError(ExitFailure, "validation failed")
	}

	w := formatter.Writer
	invalid := 0
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.Path)
			continue
		}
		invalid++
		fmt.Fprintf(w, "✗ %s\n  %s\n", fv.Path, fv.Error)
	}
	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario file(s) invalid", invalid, len(result.Files)))
	}
	fmt.Fprintf(w, "All %d scenario file(s) valid\n", len(result.Files))
	return nil
}

// expandScenarioPaths replaces each directory in paths with the scenario
// files it holds.
func expandScenarioPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", p)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := harness.DiscoverScenarios(p)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
