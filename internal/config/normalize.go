package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables consulted when the config file leaves a field unset.
const (
	EnvDataDir   = "SURFBATCH_DATA_DIR"
	EnvAtlasDir  = "SURFBATCH_ATLAS_DIR"
	EnvOutputDir = "SURFBATCH_OUTPUT_DIR"
	EnvJobs      = "SURFBATCH_JOBS"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBatch(); err != nil {
		return err
	}
	c.normalizeWorkbench()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	overlayEnv(&c.Paths.DataDir, EnvDataDir)
	overlayEnv(&c.Paths.AtlasDir, EnvAtlasDir)
	overlayEnv(&c.Paths.OutputDir, EnvOutputDir)

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.AtlasDir) == "" {
		c.Paths.AtlasDir = defaultAtlasDir
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.AtlasDir, err = expandPath(c.Paths.AtlasDir); err != nil {
		return fmt.Errorf("paths.atlas_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBatch() error {
	c.Batch.Tasks = dedupeUpper(c.Batch.Tasks)
	if len(c.Batch.Tasks) == 0 {
		c.Batch.Tasks = defaultTasks()
	}
	c.Batch.Runs = dedupeUpper(c.Batch.Runs)
	if len(c.Batch.Runs) == 0 {
		c.Batch.Runs = defaultRuns()
	}
	if c.Batch.Jobs == 0 {
		if value, ok := os.LookupEnv(EnvJobs); ok {
			jobs, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("%s: %w", EnvJobs, err)
			}
			c.Batch.Jobs = jobs
		}
	}
	if c.Batch.Jobs == 0 {
		c.Batch.Jobs = defaultJobs
	}
	return nil
}

func (c *Config) normalizeWorkbench() {
	c.Workbench.Binary = strings.TrimSpace(c.Workbench.Binary)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func overlayEnv(field *string, key string) {
	if strings.TrimSpace(*field) != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*field = strings.TrimSpace(value)
	}
}

// dedupeUpper trims, uppercases, and de-duplicates catalog entries while
// preserving first-seen order. Catalog order drives processing order.
func dedupeUpper(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToUpper(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
