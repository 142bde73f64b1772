package resample

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"surfbatch/internal/layout"
	"surfbatch/internal/logging"
	"surfbatch/internal/services"
)

// SubjectResult is the full accounting for one subject.
type SubjectResult struct {
	Subject  string
	Units    []UnitResult
	Started  time.Time
	Finished time.Time
	// Err is set only for subject-level failures (missing data directory,
	// unreachable output tree). Unit failures are recorded per variant.
	Err error
}

// Attempted sums variant attempts across all units.
func (s SubjectResult) Attempted() int {
	total := 0
	for _, u := range s.Units {
		total += u.Attempted()
	}
	return total
}

// Succeeded sums successful variants across all units.
func (s SubjectResult) Succeeded() int {
	total := 0
	for _, u := range s.Units {
		total += u.Succeeded()
	}
	return total
}

// Failed sums failed variants across all units.
func (s SubjectResult) Failed() int {
	total := 0
	for _, u := range s.Units {
		total += u.Failed()
	}
	return total
}

// OK reports whether the subject finished without any failure.
func (s SubjectResult) OK() bool {
	return s.Err == nil && s.Failed() == 0
}

// Duration returns the wall-clock processing time.
func (s SubjectResult) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// SubjectRunner processes whole subjects: it validates the subject's data
// directory, fans a unit catalog through a Processor, and writes the
// per-subject log and summary under the subject's output tree.
type SubjectRunner struct {
	processor *Processor
	paths     *layout.Resolver
	catalog   []layout.Unit
	logger    *slog.Logger
	logLevel  string
}

// NewSubjectRunner builds a runner over the given unit catalog. logLevel
// controls the per-subject file logger.
func NewSubjectRunner(processor *Processor, paths *layout.Resolver, catalog []layout.Unit, logger *slog.Logger, logLevel string) *SubjectRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SubjectRunner{
		processor: processor,
		paths:     paths,
		catalog:   catalog,
		logger:    logger,
		logLevel:  logLevel,
	}
}

// Run processes every unit in the catalog for one subject. It never returns
// an error for unit failures; those are in the result. The returned error
// mirrors result.Err for callers that prefer error flow.
func (r *SubjectRunner) Run(ctx context.Context, subject string) (SubjectResult, error) {
	ctx = services.WithSubject(ctx, subject)
	result := SubjectResult{Subject: subject, Started: time.Now()}

	if _, err := os.Stat(r.paths.SubjectDir(subject)); err != nil {
		result.Err = services.Wrap(services.ErrNotFound, "resample", "run",
			fmt.Sprintf("subject directory %s", r.paths.SubjectDir(subject)), err)
		result.Finished = time.Now()
		r.logger.Error("subject directory missing",
			logging.String(logging.FieldSubject, subject),
			logging.Error(result.Err))
		return result, result.Err
	}

	if err := os.MkdirAll(r.paths.SubjectOutputDir(subject), 0o755); err != nil {
		result.Err = services.Wrap(services.ErrConfiguration, "resample", "run",
			"create subject output directory", err)
		result.Finished = time.Now()
		return result, result.Err
	}

	logger, closer := r.subjectLogger(ctx, subject)
	defer closer()

	logger.Info("subject processing started",
		logging.Int("units", len(r.catalog)))

	for _, unit := range r.catalog {
		if err := ctx.Err(); err != nil {
			result.Err = services.Wrap(services.ErrValidation, "resample", "run", "batch cancelled", err)
			break
		}
		unitLogger := logger.With(
			logging.String(logging.FieldTask, unit.Task),
			logging.String(logging.FieldRun, unit.Run))
		unitLogger.Info("processing unit")
		unitResult := r.processor.withLogger(logger).ProcessUnit(ctx, subject, unit)
		result.Units = append(result.Units, unitResult)
		unitLogger.Info("unit finished",
			logging.Int("attempted", unitResult.Attempted()),
			logging.Int("succeeded", unitResult.Succeeded()),
			logging.Int("failed", unitResult.Failed()))
	}
	result.Finished = time.Now()

	if err := WriteSubjectSummary(r.paths.SubjectSummary(subject), result); err != nil {
		logger.Warn("write subject summary failed", logging.Error(err))
	}

	logger.Info("subject processing finished",
		logging.Int("attempted", result.Attempted()),
		logging.Int("succeeded", result.Succeeded()),
		logging.Int("failed", result.Failed()),
		logging.String("duration", result.Duration().Round(time.Millisecond).String()))
	return result, result.Err
}

// subjectLogger opens the per-subject file logger and tees it with the batch
// logger. Falls back to the batch logger alone when the file cannot open.
func (r *SubjectRunner) subjectLogger(ctx context.Context, subject string) (*slog.Logger, func()) {
	fileLogger, closer, err := logging.NewFileLogger(r.paths.SubjectLog(subject), r.logLevel)
	if err != nil {
		r.logger.Warn("per-subject log unavailable",
			logging.String(logging.FieldSubject, subject),
			logging.Error(err))
		return logging.WithContext(ctx, r.logger), func() {}
	}
	tee := logging.Tee(r.logger, fileLogger)
	return logging.WithContext(ctx, tee), func() { _ = closer.Close() }
}

// withLogger returns a shallow copy of the processor bound to the given
// logger, so per-subject file logs capture wb_command activity.
func (p *Processor) withLogger(logger *slog.Logger) *Processor {
	clone := *p
	clone.logger = logger
	return &clone
}
