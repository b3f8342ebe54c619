// Package mux replaces the source video's audio track with the synthesized
// speech. Stream copy keeps the original video untouched; a full re-encode
// is the fallback for containers that reject copied streams.
package mux

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media/ffprobe"
	"dubber/internal/services"
)

// Engine names in fallback order.
const (
	EngineCopy     = "ffmpeg-copy"
	EngineReencode = "ffmpeg-reencode"
)

// Service muxes video and audio with ffmpeg.
type Service struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	inspect       func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewService creates a mux service using the given ffmpeg and ffprobe
// binaries.
func NewService(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Service {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		logger:        logger,
		inspect:       ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithInspector replaces the ffprobe verification step (for testing).
func (s *Service) WithInspector(inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	s.inspect = inspect
}

// MuxCopy combines video and audio with the video stream copied verbatim.
// The -shortest flag ends the output with the shorter input, so the dubbed
// audio never outlives the video.
func (s *Service) MuxCopy(ctx context.Context, videoPath, audioPath, dest string) error {
	return s.mux(ctx, EngineCopy, videoPath, audioPath, dest, false)
}

// MuxReencode combines video and audio with the video re-encoded. Slower,
// but rescues sources whose codec cannot be stream-copied into MP4.
func (s *Service) MuxReencode(ctx context.Context, videoPath, audioPath, dest string) error {
	return s.mux(ctx, EngineReencode, videoPath, audioPath, dest, true)
}

func (s *Service) mux(ctx context.Context, engineName, videoPath, audioPath, dest string, reencode bool) error {
	if !fileutil.NonEmptyFile(videoPath) {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleMux), engineName,
			fmt.Sprintf("video %q missing or empty", videoPath), nil)
	}
	if !fileutil.NonEmptyFile(audioPath) {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleMux), engineName,
			fmt.Sprintf("audio %q missing or empty", audioPath), nil)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)

	if err := s.run(ctx, s.ffmpegBinary, muxArgs(videoPath, audioPath, partial, reencode)...); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleMux), engineName, "mux failed", err)
	}
	if !fileutil.NonEmptyFile(partial) {
		return services.Wrap(services.ErrExecution, string(engine.RoleMux), engineName, "ffmpeg produced no output", nil)
	}
	if err := s.verify(ctx, partial); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleMux), engineName, "output verification failed", err)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleMux), engineName, "finalize output", err)
	}
	return nil
}

// verify probes the muxed file and requires at least one video and one
// audio stream.
func (s *Service) verify(ctx context.Context, path string) error {
	if s.inspect == nil {
		return nil
	}
	result, err := s.inspect(ctx, s.ffprobeBinary, path)
	if err != nil {
		return err
	}
	if result.VideoStreamCount() < 1 {
		return fmt.Errorf("muxed file has no video stream")
	}
	if result.AudioStreamCount() < 1 {
		return fmt.Errorf("muxed file has no audio stream")
	}
	return nil
}

// Candidates returns the mux chain for the selector.
func (s *Service) Candidates(videoPath, audioPath, dest string) []engine.Candidate {
	return []engine.Candidate{
		{
			Name: EngineCopy,
			Run: func(ctx context.Context) error {
				return s.MuxCopy(ctx, videoPath, audioPath, dest)
			},
		},
		{
			Name: EngineReencode,
			Run: func(ctx context.Context) error {
				return s.MuxReencode(ctx, videoPath, audioPath, dest)
			},
		},
	}
}

// Descriptors lists the mux engines in fallback order.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		{Role: engine.RoleMux, Name: EngineCopy, Summary: "ffmpeg mux with video stream copy"},
		{Role: engine.RoleMux, Name: EngineReencode, Summary: "ffmpeg mux with video re-encode"},
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

func muxArgs(videoPath, audioPath, dest string, reencode bool) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}
	if reencode {
		args = append(args, "-c:v", "libx264", "-preset", "veryfast")
	} else {
		args = append(args, "-c:v", "copy")
	}
	return append(args,
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		dest,
	)
}
