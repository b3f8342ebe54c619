// Package translate renders the transcript into the target language. The
// Google Translate web endpoint is the free default; the OpenAI chat API is
// the alternative when an API key is configured.
package translate

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/services"
)

// Engine names.
const (
	EngineGoogle = "google"
	EngineOpenAI = "openai"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service translates transcript files.
type Service struct {
	preferred string
	logger    *slog.Logger
	google    *googleClient
	openai    *chatClient
}

// NewService creates a translation service. preferred selects the engine
// tried first; apiKey, model and apiBase configure the OpenAI engine.
func NewService(preferred, apiKey, model, apiBase string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred == "" {
		preferred = EngineGoogle
	}
	return &Service{
		preferred: preferred,
		logger:    logger,
		google:    newGoogleClient(),
		openai:    newChatClient(apiKey, model, apiBase),
	}
}

// WithGoogleHTTPClient swaps the HTTP client behind the Google engine (for
// testing).
func (s *Service) WithGoogleHTTPClient(client httpDoer) {
	s.google.client = client
}

// WithOpenAIHTTPClient swaps the HTTP client behind the OpenAI engine (for
// testing).
func (s *Service) WithOpenAIHTTPClient(client httpDoer) {
	s.openai.client = client
}

// TranslateFile reads the transcript at src, translates it with the named
// engine, and writes the result to dest.
func (s *Service) TranslateFile(ctx context.Context, engineName, src, sourceLang, targetLang, dest string) error {
	text, err := os.ReadFile(src)
	if err != nil {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleTranslate), engineName, "read transcript", err)
	}

	var translated string
	switch engineName {
	case EngineGoogle:
		translated, err = s.google.translate(ctx, string(text), sourceLang, targetLang)
	case EngineOpenAI:
		translated, err = s.openai.translate(ctx, string(text), sourceLang, targetLang)
	default:
		return services.Wrap(services.ErrConfiguration, string(engine.RoleTranslate), engineName, "unknown translation engine", nil)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(translated) == "" {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranslate), engineName, "empty translation returned", nil)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)
	if err := os.WriteFile(partial, []byte(translated), 0o644); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranslate), engineName, "write translation", err)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleTranslate), engineName, "finalize translation", err)
	}
	return nil
}

// Candidates returns the translation chain. The preferred engine runs
// first; the other engine is appended when it is usable.
func (s *Service) Candidates(src, sourceLang, targetLang, dest string) []engine.Candidate {
	run := func(name string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			return s.TranslateFile(ctx, name, src, sourceLang, targetLang, dest)
		}
	}

	var names []string
	if s.preferred == EngineOpenAI {
		names = []string{EngineOpenAI, EngineGoogle}
	} else {
		names = []string{EngineGoogle}
		if s.openai.apiKey != "" {
			names = append(names, EngineOpenAI)
		}
	}

	candidates := make([]engine.Candidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, engine.Candidate{Name: name, Run: run(name)})
	}
	return candidates
}

// Descriptors lists the translation engines.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		{Role: engine.RoleTranslate, Name: EngineGoogle, Hosted: true, Summary: "Google Translate web endpoint"},
		{Role: engine.RoleTranslate, Name: EngineOpenAI, Hosted: true, Summary: "OpenAI chat completion (needs API key)"},
	}
}
