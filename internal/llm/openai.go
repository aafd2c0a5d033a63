package llm

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o"
)

// OpenAI talks to the chat completions endpoint.
type OpenAI struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAI creates an OpenAI-backed client.
func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	c := &OpenAI{
		httpClient: newHTTPClient(),
		logger:     logger,
		baseURL:    openAIBaseURL,
		apiKey:     cfg.APIKey,
		model:      openAIDefaultModel,
	}
	if cfg.BaseURL != "" {
		c.baseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		c.model = cfg.Model
	}
	return c
}

// Name implements Client.
func (c *OpenAI) Name() string { return ProviderOpenAI }

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_completion_tokens"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Client.
func (c *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if c.logger != nil {
		c.logger.Debug("calling OpenAI", "model", c.model)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUpstream, "OpenAI request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.Upstreamf("OpenAI returned status %d: %s", resp.StatusCode, string(detail))
	}

	var parsed openAIResponse
	if err := json.UnmarshalRead(resp.Body, &parsed); err != nil {
		return "", errors.Wrap(err, errors.CodeUpstream, "OpenAI returned an unreadable response")
	}
	if len(parsed.Choices) == 0 {
		return "", errors.Upstream("OpenAI returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
