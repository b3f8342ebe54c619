// Package synthesize turns the translated text into speech audio. The voice
// cloning engine needs reference audio and the Coqui engine a local TTS
// install; the hosted Google Translate TTS endpoint is the baseline that
// keeps a run alive when neither is usable.
package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/services"
)

// Engine names in default fallback order.
const (
	EngineVoiceClone = "voice_clone"
	EngineCoqui      = "coqui"
	EngineGTTS       = "gtts"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service synthesizes speech from text files.
type Service struct {
	ttsBinary      string
	cloneModel     string
	coquiModel     string
	referenceAudio string
	logger         *slog.Logger
	commandRunner  func(ctx context.Context, name string, args ...string) error
	gtts           *gttsClient
}

// NewService creates a synthesis service. cloneModel and coquiModel name
// Coqui model identifiers; referenceAudio may be empty when voice cloning
// is not in play.
func NewService(ttsBinary, cloneModel, coquiModel, referenceAudio string, logger *slog.Logger) *Service {
	if strings.TrimSpace(ttsBinary) == "" {
		ttsBinary = "tts"
	}
	if strings.TrimSpace(cloneModel) == "" {
		cloneModel = "tts_models/multilingual/multi-dataset/xtts_v2"
	}
	if strings.TrimSpace(coquiModel) == "" {
		coquiModel = "tts_models/multilingual/multi-dataset/your_tts"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		ttsBinary:      ttsBinary,
		cloneModel:     cloneModel,
		coquiModel:     coquiModel,
		referenceAudio: referenceAudio,
		logger:         logger,
		gtts:           newGTTSClient(),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithHTTPClient swaps the HTTP client behind the hosted engine (for
// testing).
func (s *Service) WithHTTPClient(client httpDoer) {
	s.gtts.client = client
}

// SynthesizeCloned speaks the text in the cloned voice of the reference
// audio.
func (s *Service) SynthesizeCloned(ctx context.Context, textPath, language, dest string) error {
	if !fileutil.NonEmptyFile(s.referenceAudio) {
		return services.Wrap(services.ErrEngineUnavailable, string(engine.RoleSynthesize), EngineVoiceClone,
			fmt.Sprintf("reference audio %q missing or empty", s.referenceAudio), nil)
	}
	mapped := s.mapForModel(s.cloneModel, language, EngineVoiceClone)
	return s.runCoqui(ctx, EngineVoiceClone, s.cloneModel, textPath, mapped, s.referenceAudio, dest)
}

// SynthesizeCoqui speaks the text with the stock Coqui voice model.
func (s *Service) SynthesizeCoqui(ctx context.Context, textPath, language, dest string) error {
	mapped := s.mapForModel(s.coquiModel, language, EngineCoqui)
	return s.runCoqui(ctx, EngineCoqui, s.coquiModel, textPath, mapped, "", dest)
}

// SynthesizeHosted speaks the text through the Google Translate TTS
// endpoint.
func (s *Service) SynthesizeHosted(ctx context.Context, textPath, language, dest string) error {
	text, err := os.ReadFile(textPath)
	if err != nil {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleSynthesize), EngineGTTS, "read text", err)
	}
	mapped, warned := remapLanguage(gttsLanguages, language)
	if warned {
		s.logger.Warn("language not supported by engine, defaulting to English",
			slog.String(logging.FieldEngine, EngineGTTS),
			slog.String("language", language))
	}
	return s.gtts.synthesize(ctx, string(text), mapped, dest)
}

// Candidates returns the synthesis chain in the given engine order. Unknown
// names are ignored.
func (s *Service) Candidates(order []string, textPath, language, dest string) []engine.Candidate {
	candidates := make([]engine.Candidate, 0, len(order))
	for _, name := range order {
		switch name {
		case EngineVoiceClone:
			candidates = append(candidates, engine.Candidate{
				Name:     EngineVoiceClone,
				Requires: []engine.Capability{engine.CapReferenceAudio},
				Run: func(ctx context.Context) error {
					return s.SynthesizeCloned(ctx, textPath, language, dest)
				},
			})
		case EngineCoqui:
			candidates = append(candidates, engine.Candidate{
				Name: EngineCoqui,
				Run: func(ctx context.Context) error {
					return s.SynthesizeCoqui(ctx, textPath, language, dest)
				},
			})
		case EngineGTTS:
			candidates = append(candidates, engine.Candidate{
				Name: EngineGTTS,
				Run: func(ctx context.Context) error {
					return s.SynthesizeHosted(ctx, textPath, language, dest)
				},
			})
		}
	}
	return candidates
}

// DefaultOrder returns the synthesis chain with the selected engine first
// and the hosted baseline last. An empty selection keeps the default order;
// noFallback, or selecting the baseline itself, pins the chain to exactly
// the selected engine.
func DefaultOrder(selected string, noFallback bool) []string {
	if selected != "" && (noFallback || selected == EngineGTTS) {
		return []string{selected}
	}
	order := []string{EngineVoiceClone, EngineCoqui, EngineGTTS}
	if selected == "" || selected == EngineVoiceClone {
		return order
	}
	reordered := []string{selected}
	for _, name := range order {
		if name != selected && name != EngineGTTS {
			reordered = append(reordered, name)
		}
	}
	return append(reordered, EngineGTTS)
}

// Descriptors lists the synthesis engines in default fallback order.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		{Role: engine.RoleSynthesize, Name: EngineVoiceClone, Requires: []engine.Capability{engine.CapReferenceAudio}, Summary: "Coqui XTTS voice cloning from reference audio"},
		{Role: engine.RoleSynthesize, Name: EngineCoqui, Summary: "Coqui TTS stock voice"},
		{Role: engine.RoleSynthesize, Name: EngineGTTS, Hosted: true, Summary: "Google Translate TTS endpoint"},
	}
}

func (s *Service) mapForModel(model, language, engineName string) string {
	table := xttsLanguages
	if strings.Contains(model, "your_tts") {
		table = yourTTSLanguages
	}
	mapped, warned := remapLanguage(table, language)
	if warned {
		s.logger.Warn("language not supported by engine, defaulting to English",
			slog.String(logging.FieldEngine, engineName),
			slog.String("language", language))
	}
	return mapped
}

func (s *Service) runCoqui(ctx context.Context, engineName, model, textPath, language, speakerWav, dest string) error {
	text, err := os.ReadFile(textPath)
	if err != nil {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleSynthesize), engineName, "read text", err)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)

	args := coquiArgs(string(text), model, language, speakerWav, partial)
	if err := s.run(ctx, s.ttsBinary, args...); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), engineName, "synthesis failed", err)
	}
	if !fileutil.NonEmptyFile(partial) {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), engineName, "no audio produced", nil)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), engineName, "finalize audio", err)
	}
	return nil
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

func coquiArgs(text, model, language, speakerWav, dest string) []string {
	args := []string{
		"--text", text,
		"--model_name", model,
		"--out_path", dest,
		"--language_idx", language,
	}
	if speakerWav != "" {
		args = append(args, "--speaker_wav", speakerWav)
	}
	return args
}
