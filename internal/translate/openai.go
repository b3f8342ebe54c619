package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dubber/internal/engine"
	"dubber/internal/services"
)

const defaultChatBase = "https://api.openai.com/v1"

// chatClient translates through an OpenAI-compatible chat completion API.
type chatClient struct {
	apiKey  string
	model   string
	apiBase string
	client  httpDoer
}

func newChatClient(apiKey, model, apiBase string) *chatClient {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = defaultChatBase
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-3.5-turbo"
	}
	return &chatClient{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		apiBase: apiBase,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *chatClient) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if c.apiKey == "" {
		return "", services.Wrap(services.ErrConfiguration, string(engine.RoleTranslate), EngineOpenAI, "API key not configured", nil)
	}

	system := fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s. Keep the text structure and formatting intact. Only return the translated text, no explanations or additional text.", sourceLang, targetLang)
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI,
			fmt.Sprintf("API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, "decode response", err)
	}
	if decoded.Error != nil {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, decoded.Error.Message, nil)
	}
	if len(decoded.Choices) == 0 {
		return "", services.Wrap(services.ErrExecution, string(engine.RoleTranslate), EngineOpenAI, "no choices in response", nil)
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
