// Package atlas resolves and validates the reference geometry required to
// resample between the fs_LR 32k and fsaverage4 meshes: a registered sphere
// and a vertex-area metric per hemisphere per mesh, eight files total,
// shipped in the standard_mesh_atlases distribution.
package atlas

import (
	"fmt"
	"os"
	"path/filepath"
)

// Hemisphere selects a cortical hemisphere. It is a closed two-valued type;
// every hemisphere-dependent lookup goes through its methods rather than
// string comparison.
type Hemisphere string

const (
	Left  Hemisphere = "L"
	Right Hemisphere = "R"
)

// Hemispheres returns both hemispheres in processing order (left first).
func Hemispheres() []Hemisphere {
	return []Hemisphere{Left, Right}
}

// StructureName returns the CIFTI structure identifier wb_command expects.
func (h Hemisphere) StructureName() string {
	if h == Right {
		return "CORTEX_RIGHT"
	}
	return "CORTEX_LEFT"
}

func (h Hemisphere) String() string { return string(h) }

// Reference geometry file names, fixed by the standard_mesh_atlases layout.
const (
	resampleSubdir = "resample_fsaverage"

	// TargetSpace labels the output mesh; it also names the per-subject
	// output directory.
	TargetSpace = "fsaverage4"

	// TargetVertexCount is the per-hemisphere vertex count of the target
	// mesh, used by output verification.
	TargetVertexCount = 2562

	// InterpolationMethod is the wb_command -metric-resample method token.
	InterpolationMethod = "ADAP_BARY_AREA"
)

// Pair holds the reference files for one hemisphere: the current (source
// mesh) and new (target mesh) sphere and area files, in the argument order
// -metric-resample consumes them.
type Pair struct {
	CurrentSphere string
	NewSphere     string
	CurrentArea   string
	NewArea       string
}

// Set resolves the full reference geometry under one atlas directory.
type Set struct {
	dir   string
	pairs map[Hemisphere]Pair
}

// NewSet builds the reference geometry set rooted at atlasDir. It performs
// no I/O; call Validate before relying on the files.
func NewSet(atlasDir string) *Set {
	base := filepath.Join(atlasDir, resampleSubdir)
	pairs := make(map[Hemisphere]Pair, 2)
	for _, hemi := range Hemispheres() {
		h := hemi.String()
		pairs[hemi] = Pair{
			CurrentSphere: filepath.Join(base, fmt.Sprintf("fs_LR-deformed_to-fsaverage.%s.sphere.32k_fs_LR.surf.gii", h)),
			NewSphere:     filepath.Join(base, fmt.Sprintf("fsaverage4_std_sphere.%s.3k_fsavg_%s.surf.gii", h, h)),
			CurrentArea:   filepath.Join(base, fmt.Sprintf("fs_LR.%s.midthickness_va_avg.32k_fs_LR.shape.gii", h)),
			NewArea:       filepath.Join(base, fmt.Sprintf("fsaverage4.%s.midthickness_va_avg.3k_fsavg_%s.shape.gii", h, h)),
		}
	}
	return &Set{dir: atlasDir, pairs: pairs}
}

// Dir returns the atlas root directory the set was built from.
func (s *Set) Dir() string { return s.dir }

// Pair returns the reference files for the given hemisphere.
func (s *Set) Pair(hemi Hemisphere) Pair {
	return s.pairs[hemi]
}

// Files returns all eight reference file paths in a stable order.
func (s *Set) Files() []string {
	files := make([]string, 0, 8)
	for _, hemi := range Hemispheres() {
		pair := s.pairs[hemi]
		files = append(files, pair.CurrentSphere, pair.NewSphere, pair.CurrentArea, pair.NewArea)
	}
	return files
}

// Validate checks that every reference file exists and returns the paths
// that are missing. An empty slice means the set is complete. Each missing
// file is reported individually so operators can see exactly what to fetch.
func (s *Set) Validate() []string {
	var missing []string
	for _, path := range s.Files() {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			missing = append(missing, path)
		}
	}
	return missing
}
