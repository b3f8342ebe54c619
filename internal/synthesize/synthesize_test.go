package synthesize

import (
	"bytes"
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

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSynthesizeCoquiArgs(t *testing.T) {
	dir := t.TempDir()
	textPath := writeText(t, dir, "translated.txt", "merhaba dünya")
	dest := filepath.Join(dir, "dubbed_audio.wav")

	var gotName string
	var gotArgs []string
	svc := NewService("tts", "", "", "", nil)
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return os.WriteFile(flagValue(args, "--out_path"), []byte("wav"), 0o644)
	})

	if err := svc.SynthesizeCoqui(context.Background(), textPath, "en", dest); err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if gotName != "tts" {
		t.Fatalf("unexpected binary: %q", gotName)
	}
	if flagValue(gotArgs, "--model_name") != "tts_models/multilingual/multi-dataset/your_tts" {
		t.Fatalf("unexpected model: %v", gotArgs)
	}
	if flagValue(gotArgs, "--text") != "merhaba dünya" {
		t.Fatalf("text not passed through: %v", gotArgs)
	}
	if flagValue(gotArgs, "--speaker_wav") != "" {
		t.Fatalf("speaker_wav set without cloning: %v", gotArgs)
	}
	if !bytes.Equal(readFile(t, dest), []byte("wav")) {
		t.Fatal("dest not finalized")
	}
}

func TestSynthesizeClonedRequiresReferenceAudio(t *testing.T) {
	dir := t.TempDir()
	textPath := writeText(t, dir, "translated.txt", "hello")
	svc := NewService("tts", "", "", filepath.Join(dir, "absent.wav"), nil)
	invoked := false
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		invoked = true
		return nil
	})
	err := svc.SynthesizeCloned(context.Background(), textPath, "en", filepath.Join(dir, "out.wav"))
	if !errors.Is(err, services.ErrEngineUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if invoked {
		t.Fatal("tts invoked without reference audio")
	}
}

func TestSynthesizeClonedPassesSpeakerWavAndLanguage(t *testing.T) {
	dir := t.TempDir()
	textPath := writeText(t, dir, "translated.txt", "ni hao")
	reference := writeText(t, dir, "reference.wav", "riff")
	dest := filepath.Join(dir, "dubbed_audio.wav")

	var gotArgs []string
	svc := NewService("tts", "", "", reference, nil)
	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		gotArgs = args
		return os.WriteFile(flagValue(args, "--out_path"), []byte("wav"), 0o644)
	})

	if err := svc.SynthesizeCloned(context.Background(), textPath, "zh", dest); err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if flagValue(gotArgs, "--speaker_wav") != reference {
		t.Fatalf("speaker_wav missing: %v", gotArgs)
	}
	if flagValue(gotArgs, "--language_idx") != "zh-cn" {
		t.Fatalf("expected zh remapped to zh-cn: %v", gotArgs)
	}
}

func TestLanguageRemapTables(t *testing.T) {
	cases := []struct {
		table    map[string]string
		language string
		want     string
		warned   bool
	}{
		{xttsLanguages, "zh", "zh-cn", false},
		{xttsLanguages, "tr", "tr", false},
		{xttsLanguages, "xx", "en", true},
		{yourTTSLanguages, "fr", "fr-fr", false},
		{yourTTSLanguages, "pt", "pt-br", false},
		{yourTTSLanguages, "pt-BR", "pt-br", false},
		{yourTTSLanguages, "tr", "en", false},
		{gttsLanguages, "zh", "zh-CN", false},
		{gttsLanguages, "tr", "tr", false},
		{gttsLanguages, "hu", "en", true},
	}
	for _, tc := range cases {
		got, warned := remapLanguage(tc.table, tc.language)
		if got != tc.want || warned != tc.warned {
			t.Fatalf("remap(%q) = %q warned=%v, want %q warned=%v", tc.language, got, warned, tc.want, tc.warned)
		}
	}
}

type stubDoer struct {
	requests []string
	body     []byte
	status   int
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req.URL.String())
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
		Header:     http.Header{},
	}, nil
}

func TestSynthesizeHostedWritesAudio(t *testing.T) {
	dir := t.TempDir()
	textPath := writeText(t, dir, "translated.txt", "merhaba")
	dest := filepath.Join(dir, "dubbed_audio.wav")

	doer := &stubDoer{body: []byte("mp3 frames")}
	svc := NewService("tts", "", "", "", nil)
	svc.WithHTTPClient(doer)

	if err := svc.SynthesizeHosted(context.Background(), textPath, "tr", dest); err != nil {
		t.Fatalf("hosted synthesis failed: %v", err)
	}
	if len(doer.requests) != 1 || !strings.Contains(doer.requests[0], "tl=tr") {
		t.Fatalf("unexpected requests: %v", doer.requests)
	}
	if !bytes.Equal(readFile(t, dest), []byte("mp3 frames")) {
		t.Fatal("audio not written")
	}
}

func TestSynthesizeHostedChunksLongText(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("kelime ", 100)
	textPath := writeText(t, dir, "translated.txt", long)
	dest := filepath.Join(dir, "dubbed_audio.wav")

	doer := &stubDoer{body: []byte("x")}
	svc := NewService("tts", "", "", "", nil)
	svc.WithHTTPClient(doer)

	if err := svc.SynthesizeHosted(context.Background(), textPath, "tr", dest); err != nil {
		t.Fatalf("hosted synthesis failed: %v", err)
	}
	if len(doer.requests) < 2 {
		t.Fatalf("expected chunked requests, got %d", len(doer.requests))
	}
	if int64(len(doer.requests)) != int64(len(readFile(t, dest))) {
		t.Fatal("concatenated audio does not match request count")
	}
}

func TestSynthesizeHostedFailureLeavesNoDest(t *testing.T) {
	dir := t.TempDir()
	textPath := writeText(t, dir, "translated.txt", "merhaba")
	dest := filepath.Join(dir, "dubbed_audio.wav")

	svc := NewService("tts", "", "", "", nil)
	svc.WithHTTPClient(&stubDoer{status: http.StatusForbidden})
	err := svc.SynthesizeHosted(context.Background(), textPath, "tr", dest)
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("dest exists after failure")
	}
}

func TestDefaultOrder(t *testing.T) {
	cases := []struct {
		selected   string
		noFallback bool
		want       []string
	}{
		{"", false, []string{EngineVoiceClone, EngineCoqui, EngineGTTS}},
		{EngineVoiceClone, false, []string{EngineVoiceClone, EngineCoqui, EngineGTTS}},
		{EngineCoqui, false, []string{EngineCoqui, EngineVoiceClone, EngineGTTS}},
		{EngineGTTS, false, []string{EngineGTTS}},
		{EngineCoqui, true, []string{EngineCoqui}},
	}
	for _, tc := range cases {
		got := DefaultOrder(tc.selected, tc.noFallback)
		if len(got) != len(tc.want) {
			t.Fatalf("order(%q, %v) = %v, want %v", tc.selected, tc.noFallback, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("order(%q, %v) = %v, want %v", tc.selected, tc.noFallback, got, tc.want)
			}
		}
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

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
