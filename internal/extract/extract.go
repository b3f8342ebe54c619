// Package extract pulls the audio track out of a source video as a mono
// 16kHz WAV file, the format the transcription engines expect.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/services"
)

// EngineFFmpeg is the only extraction engine.
const EngineFFmpeg = "ffmpeg"

// Service extracts audio with ffmpeg.
type Service struct {
	ffmpegBinary  string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an extraction service using the given ffmpeg binary.
func NewService(ffmpegBinary string, logger *slog.Logger) *Service {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{ffmpegBinary: ffmpegBinary, logger: logger}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// ExtractAudio writes the first audio stream of source to dest. The output
// is written to a temporary sibling first and moved into place only on
// success, so dest never holds a partial file.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if !fileutil.NonEmptyFile(source) {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleExtract), EngineFFmpeg,
			fmt.Sprintf("source video %q missing or empty", source), nil)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)

	if err := s.run(ctx, s.ffmpegBinary, extractArgs(source, partial)...); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleExtract), EngineFFmpeg, "audio extraction failed", err)
	}
	if !fileutil.NonEmptyFile(partial) {
		return services.Wrap(services.ErrExecution, string(engine.RoleExtract), EngineFFmpeg, "ffmpeg produced no audio output", nil)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleExtract), EngineFFmpeg, "finalize audio output", err)
	}
	return nil
}

// Candidates returns the extraction chain for the selector.
func (s *Service) Candidates(source, dest string) []engine.Candidate {
	return []engine.Candidate{
		{
			Name: EngineFFmpeg,
			Run: func(ctx context.Context) error {
				return s.ExtractAudio(ctx, source, dest)
			},
		},
	}
}

// Descriptors lists the extraction engines in fallback order.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		{Role: engine.RoleExtract, Name: EngineFFmpeg, Summary: "ffmpeg audio stream extraction (mono 16kHz WAV)"},
	}
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func extractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}
