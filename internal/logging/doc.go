// Package logging builds slog loggers with surfbatch conventions: a pretty
// console handler for interactive use, a JSON handler for machine ingestion,
// standardized field names for subject/task/run correlation, and per-subject
// file loggers so each subject's processing history lands next to its
// outputs.
package logging
