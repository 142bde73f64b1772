package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"surfbatch/internal/logging"
	"surfbatch/internal/services"
)

func TestNewFileLoggerWritesHeadline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "processing.log")
	logger, closer, err := logging.NewFileLogger(path, "info")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	logger.Info("subject processing started", logging.String(logging.FieldSubject, "100206"))
	logger.Debug("hidden at info level")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "subject processing started") {
		t.Fatalf("log missing message:\n%s", text)
	}
	if !strings.Contains(text, "100206") {
		t.Fatalf("log missing subject headline:\n%s", text)
	}
	if strings.Contains(text, "hidden at info level") {
		t.Fatalf("debug record should be filtered at info level:\n%s", text)
	}
}

func TestNewJSONFormatWritesStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surfbatch.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("batch started", logging.Int("subjects", 3))

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, `"msg":"batch started"`) && !strings.Contains(text, `"message":"batch started"`) {
		t.Fatalf("json log missing message:\n%s", text)
	}
	if !strings.Contains(text, `"subjects":3`) {
		t.Fatalf("json log missing attribute:\n%s", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextCarriesPipelineFields(t *testing.T) {
	ctx := services.WithSubject(context.Background(), "100206")
	ctx = services.WithTaskRun(ctx, "EMOTION", "LR")
	ctx = services.WithBatchID(ctx, "batch-1")

	fields := logging.ContextFields(ctx)
	if len(fields) != 4 {
		t.Fatalf("expected 4 context fields, got %d", len(fields))
	}

	path := filepath.Join(t.TempDir(), "ctx.log")
	base, closer, err := logging.NewFileLogger(path, "info")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logging.WithContext(ctx, base).Info("processing unit")
	closer.Close()

	body, _ := os.ReadFile(path)
	text := string(body)
	for _, want := range []string{"100206", "EMOTION", "batch-1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("log missing %q:\n%s", want, text)
		}
	}
}

func TestTeeFansOutToEveryLogger(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.log")
	pathB := filepath.Join(dir, "b.log")

	loggerA, closeA, err := logging.NewFileLogger(pathA, "info")
	if err != nil {
		t.Fatalf("NewFileLogger a: %v", err)
	}
	loggerB, closeB, err := logging.NewFileLogger(pathB, "info")
	if err != nil {
		t.Fatalf("NewFileLogger b: %v", err)
	}

	tee := logging.Tee(loggerA, loggerB, nil)
	tee.Info("shared record")
	closeA.Close()
	closeB.Close()

	for _, path := range []string{pathA, pathB} {
		body, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !strings.Contains(string(body), "shared record") {
			t.Fatalf("%s missing teed record:\n%s", path, body)
		}
	}
}

func TestTeeWithNoLoggersIsNop(t *testing.T) {
	tee := logging.Tee(nil, nil)
	// Must not panic and must swallow records.
	tee.Info("dropped")
}
