package resample

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"surfbatch/internal/atlas"
	"surfbatch/internal/layout"
	"surfbatch/internal/logging"
	"surfbatch/internal/services"
	"surfbatch/internal/services/workbench"
)

// Processor executes the separate/resample pipeline for single units.
type Processor struct {
	client workbench.Client
	geom   *atlas.Set
	paths  *layout.Resolver
	logger *slog.Logger
	force  bool
}

// NewProcessor constructs a unit processor. A nil logger logs nowhere.
func NewProcessor(client workbench.Client, geom *atlas.Set, paths *layout.Resolver, logger *slog.Logger, force bool) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{client: client, geom: geom, paths: paths, logger: logger, force: force}
}

// ProcessUnit runs every input variant of one task-run unit for a subject.
// Variant order is fixed: primary alignment first, then MSMAll.
func (p *Processor) ProcessUnit(ctx context.Context, subject string, unit layout.Unit) UnitResult {
	ctx = services.WithTaskRun(ctx, unit.Task, unit.Run)
	logger := logging.WithContext(ctx, p.logger)

	result := UnitResult{Unit: unit}
	for _, variant := range layout.Variants() {
		result.Variants = append(result.Variants, p.processVariant(ctx, logger, subject, unit, variant))
	}
	return result
}

func (p *Processor) processVariant(ctx context.Context, logger *slog.Logger, subject string, unit layout.Unit, variant layout.Variant) VariantResult {
	logger = logger.With(logging.String(logging.FieldVariant, variant.String()))

	input := p.paths.InputFile(subject, unit, variant)
	if _, err := os.Stat(input); err != nil {
		logger.Debug("input variant absent, skipping", logging.String("path", input))
		return VariantResult{Variant: variant, Outcome: OutcomeSkipped, Detail: "input absent"}
	}

	outLeft := p.paths.OutputMetric(subject, unit, variant, atlas.Left)
	outRight := p.paths.OutputMetric(subject, unit, variant, atlas.Right)
	if !p.force && fileExists(outLeft) && fileExists(outRight) {
		logger.Info("outputs already present, skipping wb_command")
		return VariantResult{Variant: variant, Outcome: OutcomeSucceeded, Detail: "already present"}
	}

	unitDir := p.paths.UnitOutputDir(subject, unit)
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		logger.Error("create unit output directory failed", logging.Error(err))
		return VariantResult{Variant: variant, Outcome: OutcomeFailed, Detail: fmt.Sprintf("create output dir: %v", err)}
	}

	tempLeft := p.paths.TempMetric(subject, unit, variant, atlas.Left)
	tempRight := p.paths.TempMetric(subject, unit, variant, atlas.Right)

	if err := p.client.Separate(ctx, input, tempLeft, tempRight); err != nil {
		// Separate produced nothing durable; there is nothing to clean up.
		logger.Error("hemisphere separation failed", logging.Error(err))
		return VariantResult{Variant: variant, Outcome: OutcomeFailed, Detail: fmt.Sprintf("separate: %v", err)}
	}
	// Temp metrics exist from here on; remove them no matter how resampling ends.
	defer func() {
		_ = os.Remove(tempLeft)
		_ = os.Remove(tempRight)
	}()

	for _, hemi := range atlas.Hemispheres() {
		tempIn := tempLeft
		metricOut := outLeft
		if hemi == atlas.Right {
			tempIn = tempRight
			metricOut = outRight
		}
		if err := p.client.Resample(ctx, tempIn, hemi, p.geom.Pair(hemi), metricOut); err != nil {
			logger.Error("metric resample failed",
				logging.String(logging.FieldHemisphere, hemi.String()),
				logging.Error(err))
			return VariantResult{Variant: variant, Outcome: OutcomeFailed, Detail: fmt.Sprintf("resample %s: %v", hemi, err)}
		}
	}

	logger.Info("variant resampled",
		logging.String("output_left", outLeft),
		logging.String("output_right", outRight))
	return VariantResult{Variant: variant, Outcome: OutcomeSucceeded, Detail: "resampled"}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
