package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"surfbatch/internal/atlas"
	"surfbatch/internal/config"
	"surfbatch/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable.
// When writable is set the directory must also accept writes; the data and
// atlas trees are never written to.
func CheckDirectoryAccess(name, path string, writable bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	mode := uint32(unix.R_OK | unix.X_OK)
	label := "read ok"
	if writable {
		mode |= unix.W_OK
		label = "read/write ok"
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckAtlasFiles verifies that all reference geometry files exist under the
// atlas directory. The names are fixed; a rename upstream is a hard failure.
// A failed check yields a count summary followed by one result per missing
// file, so every absent path gets its own log line.
func CheckAtlasFiles(atlasDir string) []Result {
	const name = "Atlas files"
	set := atlas.NewSet(atlasDir)
	missing := set.Validate()
	if len(missing) == 0 {
		return []Result{{Name: name, Passed: true, Detail: fmt.Sprintf("all %d present", len(set.Files()))}}
	}
	results := make([]Result, 0, len(missing)+1)
	results = append(results, Result{Name: name,
		Detail: fmt.Sprintf("missing %d of %d", len(missing), len(set.Files()))})
	for _, path := range missing {
		results = append(results, Result{Name: name,
			Detail: fmt.Sprintf("%s is missing", filepath.Base(path))})
	}
	return results
}

// CheckSystemDeps evaluates the external tools a batch needs. Both the
// dispatcher and the CLI status command share this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Connectome Workbench",
			Command:     cfg.WorkbenchBinary(),
			Description: "Required for CIFTI separation and metric resampling",
		},
	}
	return deps.CheckBinaries(requirements)
}

// MissingTools returns the required external tools that are unavailable.
func MissingTools(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.MissingRequired(CheckSystemDeps(ctx, cfg))
}
