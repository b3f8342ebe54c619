package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/engine"
	"dubber/internal/services"
)

const (
	defaultAPIBase  = "https://api.openai.com/v1"
	hostedModel     = "whisper-1"
	maxUploadBytes  = 25 * 1024 * 1024
	hostedHTTPLimit = 10 * time.Minute
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIClient struct {
	apiKey  string
	apiBase string
	client  httpDoer
}

func newOpenAIClient(apiKey, apiBase string) *openAIClient {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &openAIClient{
		apiKey:  strings.TrimSpace(apiKey),
		apiBase: apiBase,
		client:  &http.Client{Timeout: hostedHTTPLimit},
	}
}

func (c *openAIClient) transcribe(ctx context.Context, audioPath, language string) (string, error) {
	if c.apiKey == "" {
		return "", services.Wrap(services.ErrConfiguration, string(engine.RoleTranscribe), EngineOpenAI, "API key not configured", nil)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrInputMissing, string(engine.RoleTranscribe), EngineOpenAI, "audio file missing", err)
	}
	if info.Size() > maxUploadBytes {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI,
			fmt.Sprintf("audio file exceeds %d byte upload limit", maxUploadBytes), nil)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "build upload", err)
	}
	audioFile, err := os.Open(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrInputMissing, string(engine.RoleTranscribe), EngineOpenAI, "open audio file", err)
	}
	defer audioFile.Close()
	if _, err := io.Copy(part, audioFile); err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "copy audio into upload", err)
	}
	writer.WriteField("model", hostedModel)
	writer.WriteField("response_format", "text")
	if language != "" {
		writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "finish upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/audio/transcriptions", &buf)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranscribe), EngineOpenAI,
			fmt.Sprintf("API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return string(body), nil
}
