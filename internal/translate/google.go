package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubber/internal/engine"
	"dubber/internal/services"
)

const (
	googleEndpoint = "https://translate.googleapis.com/translate_a/single"

	// The endpoint rejects very long query strings, so text is translated
	// in chunks split on line boundaries.
	googleChunkLimit = 4500
)

// googleClient talks to the unofficial Google Translate web endpoint.
type googleClient struct {
	client httpDoer
}

func newGoogleClient() *googleClient {
	return &googleClient{client: &http.Client{Timeout: 2 * time.Minute}}
}

func (g *googleClient) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	chunks := splitChunks(text, googleChunkLimit)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		translated, err := g.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			return "", err
		}
		parts = append(parts, translated)
	}
	return strings.Join(parts, ""), nil
}

func (g *googleClient) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", sourceLang)
	query.Set("tl", targetLang)
	query.Set("dt", "t")
	query.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle, "build request", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return decodeGoogleResponse(body)
}

// decodeGoogleResponse parses the endpoint's nested-array payload. The
// first element is a list of segments whose first field is the translated
// text.
func decodeGoogleResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle, "decode response", err)
	}
	if len(payload) == 0 {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle, "empty response payload", nil)
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineGoogle, "decode segments", err)
	}

	var builder strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var fragment string
		if err := json.Unmarshal(segment[0], &fragment); err != nil {
			continue
		}
		builder.WriteString(fragment)
	}
	return builder.String(), nil
}

// splitChunks breaks text into pieces of at most limit bytes, preferring
// line boundaries.
func splitChunks(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		// A single line longer than the limit gets split mid-line.
		for len(line) > limit {
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
