package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"surfbatch/internal/config"
	"surfbatch/internal/logging"
	"surfbatch/internal/services/workbench"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// configFlagValue returns the trimmed --config flag value, or empty when the
// flag was not given and the default search path applies.
func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// newLogger builds the batch logger from the loaded config.
func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// newWorkbenchClient builds the wb_command client, forwarding tool output to
// the logger at debug level.
func (c *commandContext) newWorkbenchClient(logger *slog.Logger) (workbench.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	sink := func(line string) {
		logger.Debug("wb_command", logging.String("output", line))
	}
	return workbench.NewCLI(
		workbench.WithBinary(cfg.WorkbenchBinary()),
		workbench.WithOutputSink(sink),
	), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
