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
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-sonnet-4-5"
)

// Anthropic talks to the messages endpoint.
type Anthropic struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	model      string
}

// NewAnthropic creates an Anthropic-backed client.
func NewAnthropic(cfg Config, logger *slog.Logger) *Anthropic {
	c := &Anthropic{
		httpClient: newHTTPClient(),
		logger:     logger,
		baseURL:    anthropicBaseURL,
		apiKey:     cfg.APIKey,
		model:      anthropicDefaultModel,
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
func (c *Anthropic) Name() string { return ProviderAnthropic }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete implements Client.
func (c *Anthropic) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: maxOutputTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	if c.logger != nil {
		c.logger.Debug("calling Anthropic", "model", c.model)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUpstream, "Anthropic request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.Upstreamf("Anthropic returned status %d: %s", resp.StatusCode, string(detail))
	}

	var parsed anthropicResponse
	if err := json.UnmarshalRead(resp.Body, &parsed); err != nil {
		return "", errors.Wrap(err, errors.CodeUpstream, "Anthropic returned an unreadable response")
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.Upstream("Anthropic returned no text content")
}
