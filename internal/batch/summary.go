package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const summaryStampLayout = "20060102_150405"

// writeSummary renders the batch report at the output tree root, named with
// the run start timestamp so successive runs never clobber each other.
func (d *Dispatcher) writeSummary(result *Result) error {
	stamp := result.Started.Format(summaryStampLayout)
	path := filepath.Join(d.cfg.Paths.OutputDir, fmt.Sprintf("batch_summary_%s.txt", stamp))

	var b strings.Builder
	fmt.Fprintf(&b, "Batch summary (run %s)\n", result.RunID)
	fmt.Fprintf(&b, "Started:  %s\n", result.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Finished: %s\n", result.Finished.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration: %s\n", result.Duration().Round(time.Second))
	b.WriteString("\n")

	succeeded := result.Succeeded()
	failed := result.Failed()
	fmt.Fprintf(&b, "Subjects total:     %d\n", len(result.Outcomes))
	fmt.Fprintf(&b, "Subjects succeeded: %d\n", len(succeeded))
	fmt.Fprintf(&b, "Subjects failed:    %d\n", len(failed))
	b.WriteString("\n")

	for _, outcome := range result.Outcomes {
		switch {
		case outcome.ResumeSkipped:
			fmt.Fprintf(&b, "  %s  skipped (completed in earlier run)\n", outcome.Subject)
		case outcome.Result.Err != nil:
			fmt.Fprintf(&b, "  %s  failed: %v\n", outcome.Subject, outcome.Result.Err)
		default:
			fmt.Fprintf(&b, "  %s  %d/%d files succeeded\n",
				outcome.Subject, outcome.Result.Succeeded(), outcome.Result.Attempted())
		}
	}

	if len(failed) > 0 {
		fmt.Fprintf(&b, "\nFailed subjects: %s\n", strings.Join(failed, " "))
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
