package preflight

import (
	"context"

	"surfbatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config: directory
// access on all three trees, the presence of the eight reference geometry
// files, and the wb_command binary.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir, false),
		CheckDirectoryAccess("Atlas directory", cfg.Paths.AtlasDir, false),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir, true),
	}
	results = append(results, CheckAtlasFiles(cfg.Paths.AtlasDir)...)

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
