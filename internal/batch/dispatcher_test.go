package batch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"surfbatch/internal/atlas"
	"surfbatch/internal/batch"
	"surfbatch/internal/config"
	"surfbatch/internal/layout"
	"surfbatch/internal/runstate"
	"surfbatch/internal/testsupport"
)

type stubClient struct {
	mu            sync.Mutex
	separateCalls int
	failSubjects  map[string]bool
}

func (s *stubClient) Separate(ctx context.Context, ciftiFile, outLeft, outRight string) error {
	s.mu.Lock()
	s.separateCalls++
	s.mu.Unlock()
	for subject := range s.failSubjects {
		if strings.Contains(ciftiFile, string(os.PathSeparator)+subject+string(os.PathSeparator)) {
			return errors.New("exit status 255")
		}
	}
	for _, path := range []string{outLeft, outRight} {
		if err := os.WriteFile(path, []byte("metric"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubClient) Resample(ctx context.Context, metricIn string, hemi atlas.Hemisphere, pair atlas.Pair, metricOut string) error {
	return os.WriteFile(metricOut, []byte("resampled"), 0o644)
}

func (s *stubClient) Version(ctx context.Context) (string, error) { return "stub", nil }

func (s *stubClient) FileInformation(ctx context.Context, path string) (string, error) {
	return "Number of Vertices: 2562\n", nil
}

var batchUnit = layout.Unit{Task: "EMOTION", Run: "LR"}

func newBatchEnv(t *testing.T, client *stubClient) (*batch.Dispatcher, *config.Config, *runstate.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithTasks("EMOTION"),
		testsupport.WithRuns("LR"),
		testsupport.WithStubbedBinaries())
	testsupport.WriteAtlasSet(t, cfg)
	store := testsupport.MustOpenStore(t, cfg)
	dispatcher, err := batch.NewDispatcher(cfg, store, client, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return dispatcher, cfg, store
}

func seedSubjects(t *testing.T, cfg *config.Config, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		subject := fmt.Sprintf("10%04d", i)
		testsupport.WriteInputVariant(t, cfg, subject, batchUnit, layout.VariantAtlas)
		ids = append(ids, subject)
	}
	return ids
}

func TestDispatcherSerialRun(t *testing.T) {
	client := &stubClient{}
	dispatcher, cfg, store := newBatchEnv(t, client)
	ids := seedSubjects(t, cfg, 3)

	result, err := dispatcher.Run(context.Background(), ids, batch.Options{Jobs: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Succeeded()) != 3 || len(result.Failed()) != 0 {
		t.Fatalf("expected 3 successes, got %+v", result)
	}

	paths := layout.NewResolver(cfg.Paths.DataDir, cfg.Paths.OutputDir)
	for _, subject := range ids {
		for _, hemi := range atlas.Hemispheres() {
			out := paths.OutputMetric(subject, batchUnit, layout.VariantAtlas, hemi)
			if _, statErr := os.Stat(out); statErr != nil {
				t.Fatalf("missing output for %s: %v", subject, statErr)
			}
		}
	}

	records, err := store.SubjectsForRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("SubjectsForRun: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 subject records, got %d", len(records))
	}
	for _, rec := range records {
		if !rec.Succeeded() {
			t.Fatalf("record should be completed: %+v", rec)
		}
	}
}

func TestDispatcherParallelRunProcessesAllSubjects(t *testing.T) {
	client := &stubClient{}
	dispatcher, cfg, _ := newBatchEnv(t, client)
	ids := seedSubjects(t, cfg, 10)

	result, err := dispatcher.Run(context.Background(), ids, batch.Options{Jobs: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Outcomes) != 10 {
		t.Fatalf("expected 10 outcomes, got %d", len(result.Outcomes))
	}
	if len(result.Failed()) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failed())
	}
	if client.separateCalls != 10 {
		t.Fatalf("expected 10 separate calls, got %d", client.separateCalls)
	}
}

func TestDispatcherIsolatesFailedSubjects(t *testing.T) {
	client := &stubClient{failSubjects: map[string]bool{"100001": true}}
	dispatcher, cfg, _ := newBatchEnv(t, client)
	ids := seedSubjects(t, cfg, 3)

	result, err := dispatcher.Run(context.Background(), ids, batch.Options{Jobs: 1})
	if err != nil {
		t.Fatalf("a failed subject must not abort the batch: %v", err)
	}
	failed := result.Failed()
	if len(failed) != 1 || failed[0] != "100001" {
		t.Fatalf("expected only 100001 to fail, got %v", failed)
	}
	if len(result.Succeeded()) != 2 {
		t.Fatalf("remaining subjects should succeed: %v", result.Succeeded())
	}
}

func TestDispatcherResumeSkipsCompletedSubjects(t *testing.T) {
	client := &stubClient{}
	dispatcher, cfg, _ := newBatchEnv(t, client)
	ids := seedSubjects(t, cfg, 2)

	if _, err := dispatcher.Run(context.Background(), ids, batch.Options{Jobs: 1}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstCalls := client.separateCalls

	result, err := dispatcher.Run(context.Background(), ids, batch.Options{Jobs: 1, Resume: true})
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if client.separateCalls != firstCalls {
		t.Fatalf("resume should not re-run wb_command, calls went %d -> %d", firstCalls, client.separateCalls)
	}
	skipped := 0
	for _, outcome := range result.Outcomes {
		if outcome.ResumeSkipped {
			skipped++
		}
	}
	if skipped != 2 {
		t.Fatalf("expected both subjects resume-skipped, got %d", skipped)
	}
	if len(result.Succeeded()) != 2 {
		t.Fatalf("resume-skipped subjects count as succeeded: %v", result.Succeeded())
	}
}

func TestDispatcherWritesBatchSummary(t *testing.T) {
	client := &stubClient{}
	dispatcher, cfg, _ := newBatchEnv(t, client)
	ids := seedSubjects(t, cfg, 1)

	result, err := dispatcher.Run(context.Background(), ids, batch.Options{Jobs: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	found := false
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "batch_summary_") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected batch summary in %s, run %s", cfg.Paths.OutputDir, result.RunID)
	}
}

func TestDispatcherRefusesEmptySubjectList(t *testing.T) {
	client := &stubClient{}
	dispatcher, _, _ := newBatchEnv(t, client)

	if _, err := dispatcher.Run(context.Background(), nil, batch.Options{}); err == nil {
		t.Fatal("expected error for empty subject list")
	}
}

func TestDispatcherFailsPreflightWithoutAtlas(t *testing.T) {
	client := &stubClient{}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	dispatcher, err := batch.NewDispatcher(cfg, store, client, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	if _, err := dispatcher.Run(context.Background(), []string{"100206"}, batch.Options{}); err == nil {
		t.Fatal("expected preflight failure with missing atlas files")
	}
	if client.separateCalls != 0 {
		t.Fatal("no subject should be processed after failed preflight")
	}
}
