// Package subjects resolves the list of subject IDs a batch should process.
// Three sources exist: explicit IDs, a list file, and a scan of the data
// directory. Exactly one source must be chosen by the caller; an empty
// resolution is an error so a misconfigured batch fails before preflight.
package subjects

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// subjectIDPattern matches HCP-style numeric subject identifiers.
var subjectIDPattern = regexp.MustCompile(`^[0-9]+$`)

// ErrNoSubjects indicates the chosen source resolved to an empty list.
var ErrNoSubjects = errors.New("no subjects resolved")

// FromExplicit normalizes an explicitly supplied ID list.
func FromExplicit(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no subject IDs supplied", ErrNoSubjects)
	}
	return out, nil
}

// FromListFile reads one subject ID per line. Text after a '#' is a comment;
// blank lines are ignored. An unreadable or effectively empty file is an
// error.
func FromListFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subject list: %w", err)
	}
	defer file.Close()

	var ids []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subject list: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: list file %s contains no subject IDs", ErrNoSubjects, path)
	}
	return ids, nil
}

// Scan lists immediate children of dataDir whose names look like subject
// IDs. Results are sorted so scan-driven batches are deterministic.
func Scan(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !subjectIDPattern.MatchString(entry.Name()) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no subject directories found under %s", ErrNoSubjects, dataDir)
	}
	sort.Strings(ids)
	return ids, nil
}
