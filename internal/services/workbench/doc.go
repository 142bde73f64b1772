// Package workbench wraps the Connectome Workbench command line tool
// (wb_command) behind a small client interface. Prefer this package over
// ad-hoc exec.Command usage when interacting with wb_command so argument
// shapes and output handling stay consistent and mockable.
package workbench
