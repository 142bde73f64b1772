package resample

import "surfbatch/internal/layout"

// Outcome classifies what happened to one input variant.
type Outcome string

const (
	// OutcomeSkipped means the source file was absent. Skips count toward
	// neither success nor failure.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeSucceeded means both hemispheres resampled cleanly.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means separate or either resample invocation failed.
	OutcomeFailed Outcome = "failed"
)

// VariantResult is the outcome of processing one input variant of a unit.
type VariantResult struct {
	Variant layout.Variant
	Outcome Outcome
	Detail  string
}

// UnitResult aggregates the variant outcomes for one task-run unit.
type UnitResult struct {
	Unit     layout.Unit
	Variants []VariantResult
}

// Attempted returns how many variants were actually processed (not skipped).
func (u UnitResult) Attempted() int {
	count := 0
	for _, v := range u.Variants {
		if v.Outcome != OutcomeSkipped {
			count++
		}
	}
	return count
}

// Succeeded returns how many variants completed cleanly.
func (u UnitResult) Succeeded() int {
	count := 0
	for _, v := range u.Variants {
		if v.Outcome == OutcomeSucceeded {
			count++
		}
	}
	return count
}

// Failed returns how many variants failed.
func (u UnitResult) Failed() int {
	count := 0
	for _, v := range u.Variants {
		if v.Outcome == OutcomeFailed {
			count++
		}
	}
	return count
}

// OK reports unit-level success: every attempted variant succeeded. A unit
// whose variants were all absent is still OK; absence is not failure.
func (u UnitResult) OK() bool {
	return u.Failed() == 0
}
