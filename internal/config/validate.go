package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration invariants that normalize cannot repair.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.AtlasDir) == "" {
		return fmt.Errorf("paths.atlas_dir is required")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return fmt.Errorf("paths.output_dir is required")
	}
	if c.Batch.Jobs < 1 {
		return fmt.Errorf("batch.jobs must be a positive integer, got %d", c.Batch.Jobs)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	for _, task := range c.Batch.Tasks {
		if strings.ContainsAny(task, "/\\ ") {
			return fmt.Errorf("batch.tasks: %q is not a valid task name", task)
		}
	}
	for _, run := range c.Batch.Runs {
		if strings.ContainsAny(run, "/\\ ") {
			return fmt.Errorf("batch.runs: %q is not a valid run label", run)
		}
	}
	return nil
}
