// Package testsupport provides shared helpers for package tests: config
// builders backed by temp directories, stub external binaries and sized
// files.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dubber/internal/config"
)

// ConfigOption allows callers to customize the generated test
// configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "logs", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLanguages sets the language pair on the test config.
func WithLanguages(source, target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Languages.Source = source
		b.cfg.Languages.Target = target
	}
}

// WithSynthesisEngine selects the TTS engine on the test config.
func WithSynthesisEngine(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Synthesis.Engine = name
	}
}

// WithReferenceAudio points the test config at a voice cloning reference
// file.
func WithReferenceAudio(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Synthesis.ReferenceAudio = path
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, every external binary the
// pipeline can invoke is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp", "whisper", "tts"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}
