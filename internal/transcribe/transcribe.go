// Package transcribe turns extracted audio into a plain-text transcript.
// The local Whisper CLI runs first; the hosted OpenAI transcription API is
// the fallback.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/services"
)

// Engine names in fallback order.
const (
	EngineWhisper = "whisper"
	EngineOpenAI  = "openai"
)

// Service transcribes audio files.
type Service struct {
	whisperBinary string
	model         string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	api           *openAIClient
}

// NewService creates a transcription service. model names the Whisper model
// size; apiKey enables the hosted fallback when non-empty.
func NewService(whisperBinary, model, apiKey, apiBase string, logger *slog.Logger) *Service {
	if strings.TrimSpace(whisperBinary) == "" {
		whisperBinary = "whisper"
	}
	if strings.TrimSpace(model) == "" {
		model = "base"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		whisperBinary: whisperBinary,
		model:         model,
		logger:        logger,
		api:           newOpenAIClient(apiKey, apiBase),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithHTTPClient swaps the HTTP client used by the hosted engine (for
// testing).
func (s *Service) WithHTTPClient(client httpDoer) {
	s.api.client = client
}

// TranscribeLocal runs the Whisper CLI on the audio file and writes the
// transcript text to dest.
func (s *Service) TranscribeLocal(ctx context.Context, audioPath, language, dest string) error {
	workDir, err := os.MkdirTemp(filepath.Dir(dest), ".whisper-*")
	if err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineWhisper, "create work dir", err)
	}
	defer os.RemoveAll(workDir)

	args := whisperArgs(audioPath, s.model, language, workDir)
	if err := s.run(ctx, s.whisperBinary, args...); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineWhisper, "whisper failed", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	produced := filepath.Join(workDir, base+".txt")
	if !fileutil.NonEmptyFile(produced) {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineWhisper, "whisper produced no transcript", nil)
	}
	if err := fileutil.MoveInto(produced, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineWhisper, "finalize transcript", err)
	}
	return nil
}

// TranscribeHosted uploads the audio to the OpenAI transcription API and
// writes the returned text to dest.
func (s *Service) TranscribeHosted(ctx context.Context, audioPath, language, dest string) error {
	text, err := s.api.transcribe(ctx, audioPath, language)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "empty transcript returned", nil)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)
	if err := os.WriteFile(partial, []byte(text), 0o644); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "write transcript", err)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "finalize transcript", err)
	}
	return nil
}

// Candidates returns the transcription chain for the selector. The hosted
// engine is only offered when an API key is configured.
func (s *Service) Candidates(audioPath, language, dest string) []engine.Candidate {
	candidates := []engine.Candidate{
		{
			Name: EngineWhisper,
			Run: func(ctx context.Context) error {
				return s.TranscribeLocal(ctx, audioPath, language, dest)
			},
		},
	}
	if s.api.apiKey != "" {
		candidates = append(candidates, engine.Candidate{
			Name: EngineOpenAI,
			Run: func(ctx context.Context) error {
				return s.TranscribeHosted(ctx, audioPath, language, dest)
			},
		})
	}
	return candidates
}

// Descriptors lists the transcription engines in fallback order.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		{Role: engine.RoleTranscribe, Name: EngineWhisper, Summary: "local Whisper CLI"},
		{Role: engine.RoleTranscribe, Name: EngineOpenAI, Hosted: true, Summary: "OpenAI transcription API (needs API key)"},
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

func whisperArgs(audioPath, model, language, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", model,
		"--output_format", "txt",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}
