package services

import "context"

type contextKey string

const (
	subjectKey contextKey = "subject_id"
	taskKey    contextKey = "task"
	runKey     contextKey = "run"
	batchIDKey contextKey = "batch_id"
)

// WithSubject annotates context with the subject identifier.
func WithSubject(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey, id)
}

// SubjectFromContext extracts the subject identifier if present.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(subjectKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTaskRun annotates context with the task name and run label.
func WithTaskRun(ctx context.Context, task, run string) context.Context {
	if task != "" {
		ctx = context.WithValue(ctx, taskKey, task)
	}
	if run != "" {
		ctx = context.WithValue(ctx, runKey, run)
	}
	return ctx
}

// TaskFromContext returns the task name if present.
func TaskFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// RunFromContext returns the run label if present.
func RunFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatchID annotates context with the batch correlation identifier.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext extracts the batch correlation identifier if present.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
