package services_test

import (
	"errors"
	"strings"
	"testing"

	"dubber/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExecution, "ffmpeg", "mux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ffmpeg", "mux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "gtts", "synthesize", "request failed", nil)
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution marker default, got %v", err)
	}
}

func TestFallbackable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"input missing", services.Wrap(services.ErrInputMissing, "", "prepare", "no audio", nil), true},
		{"unavailable", services.Wrap(services.ErrEngineUnavailable, "whisper", "", "binary missing", nil), true},
		{"execution", services.Wrap(services.ErrExecution, "yt-dlp", "download", "exit 1", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "xtts", "synthesize", "deadline", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "validate", "bad language", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Fallbackable(tc.err); got != tc.want {
				t.Fatalf("Fallbackable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if got := services.Classify(errors.New("untagged")); !errors.Is(got, services.ErrExecution) {
		t.Fatalf("expected untagged errors to classify as execution, got %v", got)
	}
	timeout := services.Wrap(services.ErrTimeout, "whisper", "transcribe", "slow", nil)
	if got := services.Classify(timeout); !errors.Is(got, services.ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", got)
	}
	if got := services.Classify(nil); got != nil {
		t.Fatalf("expected nil classification for nil error, got %v", got)
	}
}
