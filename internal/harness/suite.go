package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioExtensions lists the file extensions DiscoverScenarios picks up.
var ScenarioExtensions = []string{".yaml", ".yml", ".cue"}

// ScenarioNotFoundError is returned when a scenario directory holds no
// scenario files.
type ScenarioNotFoundError struct {
	Dir string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("no scenario files (%s) found in %s", strings.Join(ScenarioExtensions, ", "), e.Dir)
}

// DiscoverScenarios returns the scenario files in dir, sorted by path.
// Subdirectories are not searched.
func DiscoverScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range ScenarioExtensions {
			if ext == want {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	if len(paths) == 0 {
		return nil, &ScenarioNotFoundError{Dir: dir}
	}
	sort.Strings(paths)
	return paths, nil
}

// SuiteEntry is the outcome of one scenario file in a suite.
type SuiteEntry struct {
	Path     string
	Scenario *Scenario
	Result   *Result
	// Err is set if the scenario could not be loaded or run.
	Err error
}

// Passed reports whether the scenario ran and passed.
func (e SuiteEntry) Passed() bool {
	return e.Err == nil && e.Result != nil && e.Result.Pass
}

// RunSuite loads and runs every scenario in paths, in order. A scenario
// that fails to load or run does not stop the suite.
func RunSuite(ctx context.Context, paths []string, opts ...Option) []SuiteEntry {
	entries := make([]SuiteEntry, 0, len(paths))
	for _, p := range paths {
		entry := SuiteEntry{Path: p}
		entry.Scenario, entry.Err = LoadScenario(p)
		if entry.Err == nil {
			entry.Result, entry.Err = Run(ctx, entry.Scenario, opts...)
		}
		entries = append(entries, entry)
		if ctx.Err() != nil {
			break
		}
	}
	return entries
}
