// Package layout is the pure path resolver for the HCP directory
// convention. It constructs every input, temporary, and output path from a
// (subject, task, run, variant) tuple and never touches the filesystem:
// malformed inputs simply yield paths that fail existence checks downstream.
package layout

import (
	"fmt"
	"path/filepath"

	"surfbatch/internal/atlas"
)

// Variant identifies which source alignment of a task-run is processed.
type Variant string

const (
	// VariantAtlas is the standard MSMSulc-aligned dtseries.
	VariantAtlas Variant = "Atlas"
	// VariantAtlasMSMAll is the MSMAll-aligned dtseries.
	VariantAtlasMSMAll Variant = "Atlas_MSMAll"
)

// Variants returns both input variants in processing order.
func Variants() []Variant {
	return []Variant{VariantAtlas, VariantAtlasMSMAll}
}

func (v Variant) String() string { return string(v) }

// Unit is one task-run pair, the atomic scheduling unit within a subject.
type Unit struct {
	Task string
	Run  string
}

// Name returns the canonical "TASK_RUN" label, e.g. "EMOTION_LR".
func (u Unit) Name() string {
	return u.Task + "_" + u.Run
}

// DirName returns the tfMRI directory name for the unit.
func (u Unit) DirName() string {
	return "tfMRI_" + u.Name()
}

// Catalog builds the task × run cross-product in deterministic order:
// outer iteration over tasks, inner over runs.
func Catalog(tasks, runs []string) []Unit {
	units := make([]Unit, 0, len(tasks)*len(runs))
	for _, task := range tasks {
		for _, run := range runs {
			units = append(units, Unit{Task: task, Run: run})
		}
	}
	return units
}

// Resolver constructs paths for one data/output tree pair.
type Resolver struct {
	dataDir   string
	outputDir string
}

// NewResolver returns a resolver rooted at the given trees.
func NewResolver(dataDir, outputDir string) *Resolver {
	return &Resolver{dataDir: dataDir, outputDir: outputDir}
}

// SubjectDir returns the subject's root under the data tree.
func (r *Resolver) SubjectDir(subject string) string {
	return filepath.Join(r.dataDir, subject)
}

// InputFile returns the combined CIFTI dtseries for a unit variant:
// {data}/{subject}/MNINonLinear/Results/tfMRI_{task}_{run}/tfMRI_{task}_{run}_{variant}.dtseries.nii
func (r *Resolver) InputFile(subject string, unit Unit, variant Variant) string {
	return filepath.Join(
		r.dataDir, subject, "MNINonLinear", "Results", unit.DirName(),
		fmt.Sprintf("%s_%s.dtseries.nii", unit.DirName(), variant),
	)
}

// SubjectOutputDir returns the per-subject output root:
// {output}/{subject}/fsaverage4
func (r *Resolver) SubjectOutputDir(subject string) string {
	return filepath.Join(r.outputDir, subject, atlas.TargetSpace)
}

// UnitOutputDir returns the per-unit output directory.
func (r *Resolver) UnitOutputDir(subject string, unit Unit) string {
	return filepath.Join(r.SubjectOutputDir(subject), unit.DirName())
}

// TempMetric returns the intermediate per-hemisphere metric produced by the
// separate step. Temp files live in the unit output directory and carry a
// temp_ prefix so cleanup can never touch final outputs.
func (r *Resolver) TempMetric(subject string, unit Unit, variant Variant, hemi atlas.Hemisphere) string {
	return filepath.Join(
		r.UnitOutputDir(subject, unit),
		fmt.Sprintf("temp_%s_%s.%s.32k.func.gii", unit.Name(), variant, hemi),
	)
}

// OutputMetric returns the final resampled per-hemisphere metric:
// tfMRI_{task}_{run}_{variant}.{H}.3k_fsavg_{H}.func.gii
func (r *Resolver) OutputMetric(subject string, unit Unit, variant Variant, hemi atlas.Hemisphere) string {
	return filepath.Join(
		r.UnitOutputDir(subject, unit),
		fmt.Sprintf("%s_%s.%s.3k_fsavg_%s.func.gii", unit.DirName(), variant, hemi, hemi),
	)
}

// SubjectLog returns the per-subject processing log path.
func (r *Resolver) SubjectLog(subject string) string {
	return filepath.Join(r.SubjectOutputDir(subject), "processing.log")
}

// SubjectSummary returns the per-subject summary path.
func (r *Resolver) SubjectSummary(subject string) string {
	return filepath.Join(r.SubjectOutputDir(subject), "processing_summary.txt")
}

// BatchSummary returns the batch summary path for the given timestamp label.
func (r *Resolver) BatchSummary(stamp string) string {
	return filepath.Join(r.outputDir, fmt.Sprintf("batch_summary_%s.txt", stamp))
}

// OutputDir returns the output tree root.
func (r *Resolver) OutputDir() string { return r.outputDir }

// DataDir returns the data tree root.
func (r *Resolver) DataDir() string { return r.dataDir }
