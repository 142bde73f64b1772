// Package verify audits a subject's output tree against the expected set of
// resampled metric files and, optionally, interrogates each file with
// wb_command to confirm its vertex count matches the target mesh.
package verify

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"surfbatch/internal/atlas"
	"surfbatch/internal/layout"
	"surfbatch/internal/services/workbench"
)

// FileStatus describes one expected output file.
type FileStatus struct {
	Path        string
	Unit        layout.Unit
	Variant     layout.Variant
	Hemisphere  atlas.Hemisphere
	Present     bool
	VertexCount int
	// VertexOK is meaningful only when a vertex check ran on a present file.
	VertexOK bool
	Detail   string
}

// Report is the audit result for one subject.
type Report struct {
	Subject       string
	Files         []FileStatus
	CheckedVertex bool
}

// Present counts files found on disk.
func (r *Report) Present() int {
	count := 0
	for _, f := range r.Files {
		if f.Present {
			count++
		}
	}
	return count
}

// Missing returns the expected files not found on disk.
func (r *Report) Missing() []FileStatus {
	var missing []FileStatus
	for _, f := range r.Files {
		if !f.Present {
			missing = append(missing, f)
		}
	}
	return missing
}

// VertexFailures returns present files whose vertex count did not match.
func (r *Report) VertexFailures() []FileStatus {
	if !r.CheckedVertex {
		return nil
	}
	var bad []FileStatus
	for _, f := range r.Files {
		if f.Present && !f.VertexOK {
			bad = append(bad, f)
		}
	}
	return bad
}

// Complete reports whether every expected file is present and, when vertex
// checking ran, every file carries the target vertex count.
func (r *Report) Complete() bool {
	return len(r.Missing()) == 0 && len(r.VertexFailures()) == 0
}

// Verifier audits subjects.
type Verifier struct {
	paths   *layout.Resolver
	catalog []layout.Unit
	client  workbench.Client
}

// NewVerifier builds a verifier over the given unit catalog. client may be
// nil when vertex checking is never requested.
func NewVerifier(paths *layout.Resolver, catalog []layout.Unit, client workbench.Client) *Verifier {
	return &Verifier{paths: paths, catalog: catalog, client: client}
}

// Subject enumerates every expected output of the subject and checks
// presence. When checkVertices is set, each present file is additionally
// interrogated with wb_command -file-information.
func (v *Verifier) Subject(ctx context.Context, subject string, checkVertices bool) (*Report, error) {
	if checkVertices && v.client == nil {
		return nil, fmt.Errorf("vertex check requested but no workbench client configured")
	}

	report := &Report{Subject: subject, CheckedVertex: checkVertices}
	for _, unit := range v.catalog {
		for _, variant := range layout.Variants() {
			for _, hemi := range atlas.Hemispheres() {
				status := FileStatus{
					Path:       v.paths.OutputMetric(subject, unit, variant, hemi),
					Unit:       unit,
					Variant:    variant,
					Hemisphere: hemi,
				}
				info, err := os.Stat(status.Path)
				status.Present = err == nil && !info.IsDir()
				if status.Present && checkVertices {
					v.checkVertexCount(ctx, &status)
				}
				report.Files = append(report.Files, status)
			}
		}
	}
	return report, nil
}

var vertexCountPattern = regexp.MustCompile(`Number of Vertices:\s*(\d+)`)

func (v *Verifier) checkVertexCount(ctx context.Context, status *FileStatus) {
	out, err := v.client.FileInformation(ctx, status.Path)
	if err != nil {
		status.Detail = fmt.Sprintf("file-information: %v", err)
		return
	}
	match := vertexCountPattern.FindStringSubmatch(out)
	if match == nil {
		status.Detail = "vertex count not reported"
		return
	}
	count, err := strconv.Atoi(match[1])
	if err != nil {
		status.Detail = fmt.Sprintf("vertex count unparsable: %q", match[1])
		return
	}
	status.VertexCount = count
	if count == atlas.TargetVertexCount {
		status.VertexOK = true
		return
	}
	status.Detail = fmt.Sprintf("expected %d vertices, found %d", atlas.TargetVertexCount, count)
}
