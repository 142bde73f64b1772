// Package resample drives the per-subject processing pipeline: for every
// task-run unit and input variant, separate the combined CIFTI file into
// hemisphere metrics, resample each hemisphere onto the target mesh, and
// clean up intermediates. All heavy computation happens inside wb_command;
// this package owns ordering, skip/failure accounting, and reporting.
package resample
