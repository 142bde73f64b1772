package runstate

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a subject within a batch run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Run is one batch invocation.
type Run struct {
	ID                string
	OutputDir         string
	StartedAt         time.Time
	FinishedAt        *time.Time
	TotalSubjects     int
	SucceededSubjects int
	FailedSubjects    int
}

// SubjectRecord is the outcome of one subject within a run.
type SubjectRecord struct {
	ID             int64
	RunID          string
	SubjectID      string
	OutputDir      string
	Status         Status
	AttemptedUnits int
	SucceededUnits int
	FailedUnits    int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Succeeded reports whether every attempted unit completed.
func (r SubjectRecord) Succeeded() bool {
	return r.Status == StatusCompleted && r.FailedUnits == 0
}
