package main

import (
	"os"
	"path/filepath"
	"testing"

	"surfbatch/internal/layout"
	"surfbatch/internal/testsupport"
)

func TestRunRequiresSubjectSource(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without a subject source")
	}
	requireContains(t, err.Error(), "no subjects given")
}

func TestRunProcessesExplicitSubject(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithTasks("EMOTION"),
		testsupport.WithRuns("LR"),
		testsupport.WithStubbedBinaries(),
	)
	testsupport.WriteAtlasSet(t, env.cfg)

	unit := layout.Unit{Task: "EMOTION", Run: "LR"}
	testsupport.WriteInputVariant(t, env.cfg, "100206", unit, layout.VariantAtlas)
	testsupport.WriteInputVariant(t, env.cfg, "100206", unit, layout.VariantAtlasMSMAll)

	out, _, err := runCLI(t, []string{"run", "--subject", "100206"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "Processed 1 subjects: 1 succeeded, 0 failed")

	summary := filepath.Join(env.cfg.Paths.OutputDir, "100206", "fsaverage4", "processing_summary.txt")
	if _, err := os.Stat(summary); err != nil {
		t.Fatalf("expected subject summary at %s: %v", summary, err)
	}
}

func TestRunReadsSubjectListFile(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithTasks("EMOTION"),
		testsupport.WithRuns("LR"),
		testsupport.WithStubbedBinaries(),
	)
	testsupport.WriteAtlasSet(t, env.cfg)

	unit := layout.Unit{Task: "EMOTION", Run: "LR"}
	testsupport.WriteInputVariant(t, env.cfg, "100206", unit, layout.VariantAtlas)
	testsupport.WriteInputVariant(t, env.cfg, "100307", unit, layout.VariantAtlas)

	listPath := filepath.Join(t.TempDir(), "subjects.txt")
	testsupport.WriteFile(t, listPath, "# cohort\n100206\n100307\n")

	out, _, err := runCLI(t, []string{"run", "--subject-list", listPath}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "Processed 2 subjects: 2 succeeded, 0 failed")
}

func TestRunFailsWhenEnvironmentNotReady(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithTasks("EMOTION"),
		testsupport.WithRuns("LR"),
		testsupport.WithStubbedBinaries(),
	)
	// No atlas files written, so preflight must fail before any processing.
	testsupport.WriteSubjectDir(t, env.cfg, "100206")

	_, _, err := runCLI(t, []string{"run", "--subject", "100206"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure without atlas files")
	}
	requireContains(t, err.Error(), "environment not ready")
}

func TestRunReportsFailedSubjects(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithTasks("EMOTION"),
		testsupport.WithRuns("LR"),
		testsupport.WithStubbedBinaries(),
	)
	testsupport.WriteAtlasSet(t, env.cfg)

	unit := layout.Unit{Task: "EMOTION", Run: "LR"}
	testsupport.WriteInputVariant(t, env.cfg, "100206", unit, layout.VariantAtlas)

	// 100999 has no directory under the data tree and must fail.
	out, _, err := runCLI(t, []string{"run", "-s", "100206", "-s", "100999"}, env.configPath)
	if err == nil {
		t.Fatalf("expected failure, output:\n%s", out)
	}
	requireContains(t, err.Error(), "subjects failed: 100999")
	requireContains(t, out, "Processed 2 subjects: 1 succeeded, 1 failed")
}
