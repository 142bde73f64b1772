package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"surfbatch/internal/atlas"
	"surfbatch/internal/config"
	"surfbatch/internal/layout"
	"surfbatch/internal/logging"
	"surfbatch/internal/preflight"
	"surfbatch/internal/resample"
	"surfbatch/internal/runstate"
	"surfbatch/internal/services"
	"surfbatch/internal/services/workbench"
)

// lockFileName sits at the root of the output tree so two batches cannot
// write into the same tree concurrently, even from different machines
// sharing a filesystem that honors flock.
const lockFileName = ".surfbatch.lock"

// Options control a single dispatch.
type Options struct {
	// Jobs is the maximum number of subjects processed concurrently.
	// Values below 1 mean serial.
	Jobs int
	// Force reprocesses variants whose outputs already exist.
	Force bool
	// Resume skips subjects recorded as completed against this output tree.
	Resume bool
}

// SubjectOutcome pairs a subject with its pipeline result for reporting.
type SubjectOutcome struct {
	Subject string
	Result  resample.SubjectResult
	// ResumeSkipped marks subjects never dispatched because a prior run
	// already completed them.
	ResumeSkipped bool
}

// Result is the accounting for one whole batch.
type Result struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcomes []SubjectOutcome
}

// Succeeded returns the subjects that finished without failures, including
// resume-skipped ones.
func (r *Result) Succeeded() []string {
	var ids []string
	for _, outcome := range r.Outcomes {
		if outcome.ResumeSkipped || outcome.Result.OK() {
			ids = append(ids, outcome.Subject)
		}
	}
	return ids
}

// Failed returns the subjects with at least one failure.
func (r *Result) Failed() []string {
	var ids []string
	for _, outcome := range r.Outcomes {
		if !outcome.ResumeSkipped && !outcome.Result.OK() {
			ids = append(ids, outcome.Subject)
		}
	}
	return ids
}

// Duration returns the wall-clock batch time.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Dispatcher runs batches against one configuration.
type Dispatcher struct {
	cfg    *config.Config
	store  *runstate.Store
	client workbench.Client
	logger *slog.Logger
}

// NewDispatcher constructs a dispatcher. All four collaborators are required.
func NewDispatcher(cfg *config.Config, store *runstate.Store, client workbench.Client, logger *slog.Logger) (*Dispatcher, error) {
	if cfg == nil || store == nil || client == nil {
		return nil, errors.New("dispatcher requires config, store, and workbench client")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{cfg: cfg, store: store, client: client, logger: logger}, nil
}

// Run processes the given subjects. Unit and variant failures never abort
// the batch; the returned Result carries them. The error return covers
// batch-level faults only: failed preflight, a held output lock, or a
// run-state store fault before any subject started.
func (d *Dispatcher) Run(ctx context.Context, subjects []string, opts Options) (*Result, error) {
	if len(subjects) == 0 {
		return nil, services.Wrap(services.ErrValidation, "batch", "run", "no subjects to process", nil)
	}

	if err := d.preflight(ctx); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(d.cfg.Paths.OutputDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "run", "acquire output tree lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "batch", "run",
			"another surfbatch run holds the output tree", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("release output tree lock failed", logging.Error(err))
		}
	}()

	run, err := d.store.BeginRun(ctx, d.cfg.Paths.OutputDir, len(subjects))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "run", "record run start", err)
	}
	ctx = services.WithBatchID(ctx, run.ID)
	logger := d.logger.With(logging.String(logging.FieldBatchID, run.ID))

	pending, skipped := d.partitionResumable(ctx, logger, subjects, opts)

	result := &Result{RunID: run.ID, Started: time.Now()}
	for _, subject := range skipped {
		result.Outcomes = append(result.Outcomes, SubjectOutcome{Subject: subject, ResumeSkipped: true})
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	logger.Info("batch started",
		logging.Int("subjects", len(pending)),
		logging.Int("resume_skipped", len(skipped)),
		logging.Int("jobs", jobs))

	runner := d.subjectRunner(opts)
	outcomes := d.dispatch(ctx, logger, runner, run.ID, pending, jobs)
	result.Outcomes = append(result.Outcomes, outcomes...)
	result.Finished = time.Now()

	succeeded := result.Succeeded()
	failed := result.Failed()
	if err := d.store.FinishRun(ctx, run.ID, len(succeeded), len(failed)); err != nil {
		logger.Warn("record run finish failed", logging.Error(err))
	}

	if err := d.writeSummary(result); err != nil {
		logger.Warn("write batch summary failed", logging.Error(err))
	}

	logger.Info("batch finished",
		logging.Int("succeeded", len(succeeded)),
		logging.Int("failed", len(failed)),
		logging.String("duration", result.Duration().Round(time.Second).String()))
	if len(failed) > 0 {
		logger.Warn("subjects with failures", logging.String("subjects", strings.Join(failed, ", ")))
	}
	return result, nil
}

func (d *Dispatcher) preflight(ctx context.Context) error {
	results := preflight.RunAll(ctx, d.cfg)
	for _, result := range results {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		d.logger.Error("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
	if !preflight.AllPassed(results) {
		return services.Wrap(services.ErrValidation, "batch", "preflight", "environment not ready", nil)
	}
	return nil
}

// partitionResumable splits subjects into those to dispatch and those a
// prior completed run already covered. Store faults degrade to dispatching
// the subject; reprocessing is safe.
func (d *Dispatcher) partitionResumable(ctx context.Context, logger *slog.Logger, subjects []string, opts Options) (pending, skipped []string) {
	if !opts.Resume || opts.Force {
		return subjects, nil
	}
	for _, subject := range subjects {
		done, err := d.store.WasCompleted(ctx, subject, d.cfg.Paths.OutputDir)
		if err != nil {
			logger.Warn("resume lookup failed, subject will be processed",
				logging.String(logging.FieldSubject, subject),
				logging.Error(err))
			pending = append(pending, subject)
			continue
		}
		if done {
			logger.Info("subject already completed, skipping",
				logging.String(logging.FieldSubject, subject))
			skipped = append(skipped, subject)
			continue
		}
		pending = append(pending, subject)
	}
	return pending, skipped
}

func (d *Dispatcher) subjectRunner(opts Options) *resample.SubjectRunner {
	paths := layout.NewResolver(d.cfg.Paths.DataDir, d.cfg.Paths.OutputDir)
	geom := atlas.NewSet(d.cfg.Paths.AtlasDir)
	catalog := layout.Catalog(d.cfg.Batch.Tasks, d.cfg.Batch.Runs)
	processor := resample.NewProcessor(d.client, geom, paths, d.logger, opts.Force)
	return resample.NewSubjectRunner(processor, paths, catalog, d.logger, d.cfg.Logging.Level)
}

// dispatch fans subjects across at most jobs workers and returns outcomes in
// input order.
func (d *Dispatcher) dispatch(ctx context.Context, logger *slog.Logger, runner *resample.SubjectRunner, runID string, subjects []string, jobs int) []SubjectOutcome {
	outcomes := make([]SubjectOutcome, len(subjects))
	if jobs > len(subjects) {
		jobs = len(subjects)
	}

	if jobs <= 1 {
		for i, subject := range subjects {
			outcomes[i] = d.runSubject(ctx, logger, runner, runID, subject)
		}
		return outcomes
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for worker := 0; worker < jobs; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcomes[i] = d.runSubject(ctx, logger, runner, runID, subjects[i])
			}
		}()
	}
	for i := range subjects {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return outcomes
}

func (d *Dispatcher) runSubject(ctx context.Context, logger *slog.Logger, runner *resample.SubjectRunner, runID, subject string) SubjectOutcome {
	recordID, err := d.store.StartSubject(ctx, runID, subject, d.cfg.Paths.OutputDir)
	if err != nil {
		logger.Warn("record subject start failed",
			logging.String(logging.FieldSubject, subject),
			logging.Error(err))
	}

	result, _ := runner.Run(ctx, subject)

	if recordID != 0 {
		status := runstate.StatusCompleted
		message := ""
		if result.Err != nil || result.Failed() > 0 {
			status = runstate.StatusFailed
			if result.Err != nil {
				message = result.Err.Error()
			} else {
				message = fmt.Sprintf("%d of %d files failed", result.Failed(), result.Attempted())
			}
		}
		if err := d.store.FinishSubject(ctx, recordID, status,
			result.Attempted(), result.Succeeded(), result.Failed(), message); err != nil {
			logger.Warn("record subject finish failed",
				logging.String(logging.FieldSubject, subject),
				logging.Error(err))
		}
	}
	return SubjectOutcome{Subject: subject, Result: result}
}
