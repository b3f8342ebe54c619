package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/services"
)

func TestTranscribeLocalMovesWhisperOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "source_audio.wav")
	dest := filepath.Join(dir, "transcript.txt")
	if err := os.WriteFile(audio, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	svc := NewService("whisper", "base", "", "", nil)
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotArgs = args
		outputDir := flagValue(args, "--output_dir")
		if outputDir == "" {
			return errors.New("no output dir")
		}
		return os.WriteFile(filepath.Join(outputDir, "source_audio.txt"), []byte("hello world"), 0o644)
	})

	if err := svc.TranscribeLocal(context.Background(), audio, "en", dest); err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if flagValue(gotArgs, "--model") != "base" {
		t.Fatalf("model flag missing: %v", gotArgs)
	}
	if flagValue(gotArgs, "--language") != "en" {
		t.Fatalf("language flag missing: %v", gotArgs)
	}
	if flagValue(gotArgs, "--output_format") != "txt" {
		t.Fatalf("output format flag missing: %v", gotArgs)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "hello world" {
		t.Fatalf("transcript not finalized: %q err=%v", data, err)
	}
}

func TestTranscribeLocalEmptyOutputIsError(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "source_audio.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService("whisper", "base", "", "", nil)
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return nil
	})
	err := svc.TranscribeLocal(context.Background(), audio, "en", filepath.Join(dir, "transcript.txt"))
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
}

type stubDoer struct {
	status int
	body   string
	gotReq *http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.gotReq = req
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     http.Header{},
	}, nil
}

func TestTranscribeHostedWritesText(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "source_audio.wav")
	dest := filepath.Join(dir, "transcript.txt")
	if err := os.WriteFile(audio, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}

	doer := &stubDoer{status: http.StatusOK, body: "hosted transcript"}
	svc := NewService("whisper", "base", "sk-test", "", nil)
	svc.WithHTTPClient(doer)

	if err := svc.TranscribeHosted(context.Background(), audio, "en", dest); err != nil {
		t.Fatalf("hosted transcribe failed: %v", err)
	}
	if doer.gotReq.Header.Get("Authorization") != "Bearer sk-test" {
		t.Fatalf("missing auth header: %v", doer.gotReq.Header)
	}
	if !strings.HasSuffix(doer.gotReq.URL.String(), "/audio/transcriptions") {
		t.Fatalf("unexpected endpoint: %s", doer.gotReq.URL)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "hosted transcript" {
		t.Fatalf("transcript not written: %q err=%v", data, err)
	}
}

func TestTranscribeHostedRequiresAPIKey(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "source_audio.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService("whisper", "base", "", "", nil)
	err := svc.TranscribeHosted(context.Background(), audio, "en", filepath.Join(dir, "t.txt"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribeHostedAPIError(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "source_audio.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService("whisper", "base", "sk-test", "", nil)
	svc.WithHTTPClient(&stubDoer{status: http.StatusTooManyRequests, body: "rate limited"})
	err := svc.TranscribeHosted(context.Background(), audio, "en", filepath.Join(dir, "t.txt"))
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestCandidatesOmitHostedWithoutKey(t *testing.T) {
	svc := NewService("whisper", "base", "", "", nil)
	candidates := svc.Candidates("/a.wav", "en", "/t.txt")
	if len(candidates) != 1 || candidates[0].Name != EngineWhisper {
		t.Fatalf("unexpected chain: %+v", candidates)
	}

	withKey := NewService("whisper", "base", "sk-test", "", nil)
	candidates = withKey.Candidates("/a.wav", "en", "/t.txt")
	if len(candidates) != 2 || candidates[1].Name != EngineOpenAI {
		t.Fatalf("unexpected chain with key: %+v", candidates)
	}
}

func flagValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
