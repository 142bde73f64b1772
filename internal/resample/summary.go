package resample

import (
	"fmt"
	"os"
	"strings"
	"time"

	"surfbatch/internal/atlas"
)

const summaryTimestampLayout = "2006-01-02 15:04:05"

// WriteSubjectSummary renders a human-readable processing report beside the
// subject's outputs. It is written even when every unit failed, so a tree can
// be audited without the batch log.
func WriteSubjectSummary(path string, result SubjectResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Processing summary for subject %s\n", result.Subject)
	fmt.Fprintf(&b, "Generated: %s\n", result.Finished.Format(summaryTimestampLayout))
	fmt.Fprintf(&b, "Target space: %s (%d vertices per hemisphere)\n",
		atlas.TargetSpace, atlas.TargetVertexCount)
	fmt.Fprintf(&b, "Duration: %s\n", result.Duration().Round(time.Second))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Files attempted: %d\n", result.Attempted())
	fmt.Fprintf(&b, "Files succeeded: %d\n", result.Succeeded())
	fmt.Fprintf(&b, "Files failed:    %d\n", result.Failed())
	b.WriteString("\n")

	for _, unit := range result.Units {
		fmt.Fprintf(&b, "%s:\n", unit.Unit.Name())
		for _, variant := range unit.Variants {
			mark := " "
			switch variant.Outcome {
			case OutcomeSucceeded:
				mark = "✓"
			case OutcomeFailed:
				mark = "✗"
			case OutcomeSkipped:
				mark = "-"
			}
			line := fmt.Sprintf("  %s %-12s %s", mark, variant.Variant, variant.Outcome)
			if variant.Detail != "" {
				line += " (" + variant.Detail + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	if result.Err != nil {
		fmt.Fprintf(&b, "\nSubject error: %v\n", result.Err)
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
