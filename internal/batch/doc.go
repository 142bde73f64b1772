// Package batch dispatches subjects through the resample pipeline. It owns
// the run lifecycle: preflight gating, single-writer locking of the output
// tree, serial or bounded-parallel subject execution, run-state recording,
// and the end-of-run summary report.
package batch
