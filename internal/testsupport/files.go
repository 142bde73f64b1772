package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"surfbatch/internal/atlas"
	"surfbatch/internal/config"
	"surfbatch/internal/layout"
)

// WriteFile creates the target path (and parents) with placeholder content.
func WriteFile(t testing.TB, path string, content string) {
	t.Helper()

	if content == "" {
		content = "x"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteAtlasSet materializes all eight reference geometry files under the
// config's atlas directory so preflight and atlas validation pass.
func WriteAtlasSet(t testing.TB, cfg *config.Config) *atlas.Set {
	t.Helper()

	set := atlas.NewSet(cfg.Paths.AtlasDir)
	for _, path := range set.Files() {
		WriteFile(t, path, "surf")
	}
	return set
}

// WriteInputVariant places a dtseries input for the subject at the HCP
// layout location and returns its path.
func WriteInputVariant(t testing.TB, cfg *config.Config, subject string, unit layout.Unit, variant layout.Variant) string {
	t.Helper()

	paths := layout.NewResolver(cfg.Paths.DataDir, cfg.Paths.OutputDir)
	path := paths.InputFile(subject, unit, variant)
	WriteFile(t, path, "dtseries")
	return path
}

// WriteSubjectDir creates the bare subject directory under the data tree.
func WriteSubjectDir(t testing.TB, cfg *config.Config, subject string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Join(cfg.Paths.DataDir, subject), 0o755); err != nil {
		t.Fatalf("mkdir subject %s: %v", subject, err)
	}
}
