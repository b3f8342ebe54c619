package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/logging"
	"dubber/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "dubber.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("stage started", logging.String("stage", "acquire"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "stage started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.Contains(string(content), "stage=acquire") {
		t.Fatalf("expected stage attribute in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dubber.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("invisible")
	logger.Warn("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "invisible") {
		t.Fatalf("expected info record filtered, got %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("expected warn record present, got %q", content)
	}
}

func TestComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dubber.log")
	base, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger := logging.NewComponentLogger(base, "orchestrator")
	logger.Info("pipeline started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "orchestrator: pipeline started") {
		t.Fatalf("expected component prefix, got %q", content)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dubber.log")
	base, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1234")
	ctx = services.WithStage(ctx, "synthesize")
	ctx = services.WithEngine(ctx, "gtts")

	logging.WithContext(ctx, base).Info("engine attempt")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{"run_id=run-1234", "stage=synthesize", "engine=gtts"} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %q in log output %q", fragment, content)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
