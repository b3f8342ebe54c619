package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/services"
)

type stubDoer struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (s stubDoer) Do(req *http.Request) (*http.Response, error) {
	return s.handler(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestTranslateFileWithGoogle(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "transcript.txt")
	dest := filepath.Join(dir, "translated.txt")
	if err := os.WriteFile(src, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotURL string
	svc := NewService("google", "", "", "", nil)
	svc.WithGoogleHTTPClient(stubDoer{handler: func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return jsonResponse(http.StatusOK, `[[["merhaba dünya","hello world",null,null,1]],null,"en"]`), nil
	}})

	if err := svc.TranslateFile(context.Background(), EngineGoogle, src, "en", "tr", dest); err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if !strings.Contains(gotURL, "sl=en") || !strings.Contains(gotURL, "tl=tr") {
		t.Fatalf("language params missing from URL: %s", gotURL)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "merhaba dünya" {
		t.Fatalf("unexpected translation: %q err=%v", data, err)
	}
}

func TestGoogleChunkingJoinsSegments(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "transcript.txt")
	dest := filepath.Join(dir, "translated.txt")

	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("line %d with plenty of padding text to push past the chunk limit", i))
	}
	if err := os.WriteFile(src, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	requests := 0
	svc := NewService("google", "", "", "", nil)
	svc.WithGoogleHTTPClient(stubDoer{handler: func(req *http.Request) (*http.Response, error) {
		requests++
		return jsonResponse(http.StatusOK, `[[["chunk "]],null,"en"]`), nil
	}})

	if err := svc.TranslateFile(context.Background(), EngineGoogle, src, "en", "tr", dest); err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if requests < 2 {
		t.Fatalf("expected chunked requests, got %d", requests)
	}
}

func TestTranslateFileWithOpenAI(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "transcript.txt")
	dest := filepath.Join(dir, "translated.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotBody string
	var gotAuth string
	svc := NewService("openai", "sk-test", "gpt-3.5-turbo", "", nil)
	svc.WithOpenAIHTTPClient(stubDoer{handler: func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		gotBody = string(body)
		gotAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"merhaba"}}]}`), nil
	}})

	if err := svc.TranslateFile(context.Background(), EngineOpenAI, src, "en", "tr", dest); err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("missing auth header: %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"gpt-3.5-turbo"`) || !strings.Contains(gotBody, "professional translator") {
		t.Fatalf("unexpected request body: %s", gotBody)
	}
	if !strings.Contains(gotBody, `"temperature":0.3`) {
		t.Fatalf("temperature missing: %s", gotBody)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "merhaba" {
		t.Fatalf("unexpected translation: %q err=%v", data, err)
	}
}

func TestTranslateOpenAIWithoutKeyIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "transcript.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService("openai", "", "", "", nil)
	err := svc.TranslateFile(context.Background(), EngineOpenAI, src, "en", "tr", filepath.Join(dir, "out.txt"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranslateMissingTranscript(t *testing.T) {
	dir := t.TempDir()
	svc := NewService("google", "", "", "", nil)
	err := svc.TranslateFile(context.Background(), EngineGoogle, filepath.Join(dir, "absent.txt"), "en", "tr", filepath.Join(dir, "out.txt"))
	if !errors.Is(err, services.ErrInputMissing) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestCandidatesOrderFollowsPreference(t *testing.T) {
	google := NewService("google", "", "", "", nil)
	chain := google.Candidates("/in.txt", "en", "tr", "/out.txt")
	if len(chain) != 1 || chain[0].Name != EngineGoogle {
		t.Fatalf("unexpected google chain: %+v", chain)
	}

	googleWithKey := NewService("google", "sk-test", "", "", nil)
	chain = googleWithKey.Candidates("/in.txt", "en", "tr", "/out.txt")
	if len(chain) != 2 || chain[0].Name != EngineGoogle || chain[1].Name != EngineOpenAI {
		t.Fatalf("unexpected chain: %+v", chain)
	}

	openai := NewService("openai", "sk-test", "", "", nil)
	chain = openai.Candidates("/in.txt", "en", "tr", "/out.txt")
	if len(chain) != 2 || chain[0].Name != EngineOpenAI || chain[1].Name != EngineGoogle {
		t.Fatalf("unexpected openai-first chain: %+v", chain)
	}
}

func TestSplitChunksRespectsLimit(t *testing.T) {
	text := strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 10) + "\n"
	chunks := splitChunks(text, 12)
	if len(chunks) != 2 {
		t.Fatalf("unexpected chunk count: %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks do not reassemble to original text")
	}
	for _, chunk := range chunks {
		if len(chunk) > 12 {
			t.Fatalf("chunk exceeds limit: %d", len(chunk))
		}
	}
}
