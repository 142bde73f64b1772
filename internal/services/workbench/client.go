package workbench

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"surfbatch/internal/atlas"
)

var commandContext = exec.CommandContext

// maxOutputLineBytes caps a single line of tool output.
const maxOutputLineBytes = 4 * 1024 * 1024

// Client defines the wb_command operations surfbatch depends on. Failures
// are reported as errors derived from the process exit status; callers
// decide whether a failure is fatal. There are no retries and no timeouts.
type Client interface {
	// Separate splits a combined CIFTI file into left and right cortical
	// metric files.
	Separate(ctx context.Context, ciftiFile, outLeft, outRight string) error
	// Resample maps a hemisphere metric from the source mesh onto the
	// target mesh using the hemisphere's reference geometry.
	Resample(ctx context.Context, metricIn string, hemi atlas.Hemisphere, pair atlas.Pair, metricOut string) error
	// Version probes the tool and returns its version banner.
	Version(ctx context.Context) (string, error)
	// FileInformation returns wb_command's description of a file.
	FileInformation(ctx context.Context, path string) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithOutputSink forwards every line wb_command prints (stdout and stderr)
// to the given function, typically a logger. Output is never surfaced as an
// error; exit status alone signals failure.
func WithOutputSink(sink func(string)) Option {
	return func(c *CLI) {
		c.sink = sink
	}
}

// CLI wraps the wb_command binary.
type CLI struct {
	binary string
	sink   func(string)
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "wb_command"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Separate runs wb_command -cifti-separate along COLUMN into per-hemisphere
// metric files.
func (c *CLI) Separate(ctx context.Context, ciftiFile, outLeft, outRight string) error {
	if ciftiFile == "" {
		return errors.New("cifti file required")
	}
	if outLeft == "" || outRight == "" {
		return errors.New("both hemisphere output paths required")
	}
	args := []string{
		"-cifti-separate", ciftiFile, "COLUMN",
		"-metric", atlas.Left.StructureName(), outLeft,
		"-metric", atlas.Right.StructureName(), outRight,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("cifti-separate %s: %w", ciftiFile, err)
	}
	return nil
}

// Resample runs wb_command -metric-resample with the adaptive
// barycentric-area method and explicit area metrics.
func (c *CLI) Resample(ctx context.Context, metricIn string, hemi atlas.Hemisphere, pair atlas.Pair, metricOut string) error {
	if metricIn == "" {
		return errors.New("input metric required")
	}
	if metricOut == "" {
		return errors.New("output metric required")
	}
	args := []string{
		"-metric-resample",
		metricIn,
		pair.CurrentSphere,
		pair.NewSphere,
		atlas.InterpolationMethod,
		metricOut,
		"-area-metrics",
		pair.CurrentArea,
		pair.NewArea,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("metric-resample %s %s: %w", hemi, metricIn, err)
	}
	return nil
}

// Version runs wb_command -version and returns the first line of output.
func (c *CLI) Version(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "-version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("wb_command -version: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out.String()), "\n")
	return strings.TrimSpace(line), nil
}

// FileInformation runs wb_command -file-information and returns the full
// report text.
func (c *CLI) FileInformation(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", errors.New("path required")
	}
	cmd := commandContext(ctx, c.binary, "-file-information", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("file-information %s: %w", path, err)
	}
	return out.String(), nil
}

// run executes wb_command with the given arguments, forwarding every output
// line to the configured sink.
func (c *CLI) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start wb_command: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	// -file-information can emit map-name lines far beyond the default
	// 64 KiB token limit.
	scanner.Buffer(make([]byte, 64*1024), maxOutputLineBytes)
	for scanner.Scan() {
		if c.sink != nil {
			c.sink(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("read wb_command output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wb_command exited: %w", err)
	}
	return nil
}

var _ Client = (*CLI)(nil)
