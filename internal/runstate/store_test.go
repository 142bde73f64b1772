package runstate_test

import (
	"context"
	"testing"

	"surfbatch/internal/runstate"
	"surfbatch/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, cfg.Paths.OutputDir, 2)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected run ID")
	}
	if run.TotalSubjects != 2 {
		t.Fatalf("unexpected total subjects: %d", run.TotalSubjects)
	}

	recordID, err := store.StartSubject(ctx, run.ID, "100206", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("StartSubject: %v", err)
	}
	if err := store.FinishSubject(ctx, recordID, runstate.StatusCompleted, 4, 4, 0, ""); err != nil {
		t.Fatalf("FinishSubject: %v", err)
	}

	failedID, err := store.StartSubject(ctx, run.ID, "100307", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("StartSubject: %v", err)
	}
	if err := store.FinishSubject(ctx, failedID, runstate.StatusFailed, 4, 2, 2, "2 of 4 files failed"); err != nil {
		t.Fatalf("FinishSubject: %v", err)
	}

	if err := store.FinishRun(ctx, run.ID, 1, 1); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	records, err := store.SubjectsForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("SubjectsForRun: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 subject records, got %d", len(records))
	}
	if !records[0].Succeeded() {
		t.Fatalf("first subject should count as succeeded: %+v", records[0])
	}
	if records[1].Succeeded() {
		t.Fatalf("second subject should not count as succeeded: %+v", records[1])
	}
	if records[1].ErrorMessage != "2 of 4 files failed" {
		t.Fatalf("unexpected error message: %q", records[1].ErrorMessage)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].FinishedAt == nil {
		t.Fatal("expected finished timestamp")
	}
	if runs[0].SucceededSubjects != 1 || runs[0].FailedSubjects != 1 {
		t.Fatalf("unexpected counters: %+v", runs[0])
	}
}

func TestWasCompletedMatchesOutputTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, cfg.Paths.OutputDir, 1)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	id, err := store.StartSubject(ctx, run.ID, "100206", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("StartSubject: %v", err)
	}
	if err := store.FinishSubject(ctx, id, runstate.StatusCompleted, 2, 2, 0, ""); err != nil {
		t.Fatalf("FinishSubject: %v", err)
	}

	done, err := store.WasCompleted(ctx, "100206", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("WasCompleted: %v", err)
	}
	if !done {
		t.Fatal("expected subject to be recorded complete")
	}

	done, err = store.WasCompleted(ctx, "100206", "/different/tree")
	if err != nil {
		t.Fatalf("WasCompleted: %v", err)
	}
	if done {
		t.Fatal("completion must be scoped to the output tree")
	}

	done, err = store.WasCompleted(ctx, "100307", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("WasCompleted: %v", err)
	}
	if done {
		t.Fatal("unknown subject should not be complete")
	}
}

func TestFailedSubjectIsNotResumable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, cfg.Paths.OutputDir, 1)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	id, err := store.StartSubject(ctx, run.ID, "100206", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("StartSubject: %v", err)
	}
	if err := store.FinishSubject(ctx, id, runstate.StatusFailed, 2, 1, 1, "resample failed"); err != nil {
		t.Fatalf("FinishSubject: %v", err)
	}

	done, err := store.WasCompleted(ctx, "100206", cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("WasCompleted: %v", err)
	}
	if done {
		t.Fatal("failed subject must not be treated as complete")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := runstate.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	path := store.Path()
	if _, err := store.BeginRun(context.Background(), cfg.Paths.OutputDir, 1); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := runstate.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != path {
		t.Fatalf("path changed across reopen: %q vs %q", reopened.Path(), path)
	}
	runs, err := reopened.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run, got %d", len(runs))
	}
}
