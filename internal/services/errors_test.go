package services

import (
	"context"
	"errors"
	"testing"
)

func TestWrapTagsSentinel(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "workbench", "separate", "command failed", cause)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatal("expected wrapped error to match ErrExternalTool")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped error to retain the cause")
	}
	want := "external tool error: workbench: separate: command failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrValidation, "config", "validate", "jobs must be positive", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation marker")
	}
	if errors.Is(err, ErrExternalTool) {
		t.Fatal("did not expect external tool marker")
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, ErrExternalTool) {
		t.Fatal("nil marker should fall back to ErrExternalTool")
	}
	want := "external tool error: service failure: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithSubject(context.Background(), "100206")
	ctx = WithTaskRun(ctx, "EMOTION", "LR")
	ctx = WithBatchID(ctx, "batch-1")

	if v, ok := SubjectFromContext(ctx); !ok || v != "100206" {
		t.Fatalf("subject = %q, %v", v, ok)
	}
	if v, ok := TaskFromContext(ctx); !ok || v != "EMOTION" {
		t.Fatalf("task = %q, %v", v, ok)
	}
	if v, ok := RunFromContext(ctx); !ok || v != "LR" {
		t.Fatalf("run = %q, %v", v, ok)
	}
	if v, ok := BatchIDFromContext(ctx); !ok || v != "batch-1" {
		t.Fatalf("batch id = %q, %v", v, ok)
	}
}

func TestContextEmptyValuesIgnored(t *testing.T) {
	ctx := WithSubject(context.Background(), "")
	if _, ok := SubjectFromContext(ctx); ok {
		t.Fatal("empty subject should not be stored")
	}
	if _, ok := TaskFromContext(context.Background()); ok {
		t.Fatal("bare context should carry no task")
	}
}
