// Package runstate persists batch run history in SQLite. Every batch run
// records itself and each subject it processed, which powers the status
// command and lets a re-run over the same output tree skip subjects that
// already completed.
package runstate
