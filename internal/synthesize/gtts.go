package synthesize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/services"
)

const (
	gttsEndpoint = "https://translate.google.com/translate_tts"

	// The endpoint caps the q parameter; longer text is synthesized in
	// pieces and the MP3 frames concatenated.
	gttsTextLimit = 200
)

// gttsClient speaks text through the Google Translate TTS endpoint.
type gttsClient struct {
	client httpDoer
}

func newGTTSClient() *gttsClient {
	return &gttsClient{client: &http.Client{Timeout: 2 * time.Minute}}
}

func (g *gttsClient) synthesize(ctx context.Context, text, language, dest string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleSynthesize), EngineGTTS, "no text to synthesize", nil)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)

	out, err := os.Create(partial)
	if err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "create output", err)
	}
	for _, piece := range splitUtterances(text, gttsTextLimit) {
		audio, err := g.fetchPiece(ctx, piece, language)
		if err != nil {
			out.Close()
			return err
		}
		if _, err := out.Write(audio); err != nil {
			out.Close()
			return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "write audio", err)
		}
	}
	if err := out.Close(); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "flush audio", err)
	}
	if !fileutil.NonEmptyFile(partial) {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "no audio produced", nil)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "finalize audio", err)
	}
	return nil
}

func (g *gttsClient) fetchPiece(ctx context.Context, text, language string) ([]byte, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", language)
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gttsEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "build request", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS,
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExecution, string(engine.RoleSynthesize), EngineGTTS, "read audio", err)
	}
	return audio, nil
}

// splitUtterances breaks text into pieces of at most limit runes, preferring
// sentence and word boundaries.
func splitUtterances(text string, limit int) []string {
	var pieces []string
	for _, paragraph := range strings.Fields(strings.ReplaceAll(text, "\n", " ")) {
		if len(pieces) > 0 && utf8.RuneCountInString(pieces[len(pieces)-1])+utf8.RuneCountInString(paragraph)+1 <= limit {
			pieces[len(pieces)-1] += " " + paragraph
			continue
		}
		for utf8.RuneCountInString(paragraph) > limit {
			runes := []rune(paragraph)
			pieces = append(pieces, string(runes[:limit]))
			paragraph = string(runes[limit:])
		}
		if paragraph != "" {
			pieces = append(pieces, paragraph)
		}
	}
	return pieces
}
