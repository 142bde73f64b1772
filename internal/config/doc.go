// Package config loads, normalizes, and validates surfbatch configuration.
//
// Configuration comes from a TOML file (default ~/.config/surfbatch/config.toml,
// falling back to ./surfbatch.toml), with SURFBATCH_* environment variables
// filling fields the file leaves unset. All path fields are expanded and
// absolute by the time Load returns.
package config
