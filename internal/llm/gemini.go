package llm

import (
	"bytes"
	"context"
	"encoding/json/v2"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// geminiModels is the preference order tried on quota exhaustion. Free-tier
// Gemini keys hit per-model daily quotas, so falling through to the next
// model keeps recommendations working for the rest of the day.
var geminiModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
}

// Gemini talks to the generateContent endpoint, falling back across models
// when a quota is exhausted.
type Gemini struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	models     []string
}

// NewGemini creates a Gemini-backed client. A configured model is tried
// first, ahead of the built-in fallback order.
func NewGemini(cfg Config, logger *slog.Logger) *Gemini {
	c := &Gemini{
		httpClient: newHTTPClient(),
		logger:     logger,
		baseURL:    geminiBaseURL,
		apiKey:     cfg.APIKey,
		models:     geminiModels,
	}
	if cfg.BaseURL != "" {
		c.baseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		models := []string{cfg.Model}
		for _, m := range geminiModels {
			if m != cfg.Model {
				models = append(models, m)
			}
		}
		c.models = models
	}
	return c
}

// Name implements Client.
func (c *Gemini) Name() string { return ProviderGemini }

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"system_instruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete implements Client. Models are tried in preference order; anything
// other than a quota error stops the fallback chain.
func (c *Gemini) Complete(ctx context.Context, system, prompt string) (string, error) {
	var lastErr error
	for _, model := range c.models {
		text, err := c.generate(ctx, model, system, prompt)
		if err == nil {
			return text, nil
		}
		if !isQuotaExhausted(err) {
			return "", err
		}
		if c.logger != nil {
			c.logger.Warn("Gemini model quota exhausted, trying next",
				"model", model,
				"error", err,
			)
		}
		lastErr = err
	}
	return "", errors.Wrap(lastErr, errors.CodeUpstream, "all Gemini models exhausted their quota")
}

func (c *Gemini) generate(ctx context.Context, model, system, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig:  geminiGenConfig{MaxOutputTokens: maxOutputTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	if c.logger != nil {
		c.logger.Debug("calling Gemini", "model", model)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUpstream, "Gemini request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errQuotaExhausted
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.Upstreamf("Gemini returned status %d: %s", resp.StatusCode, string(detail))
	}

	var parsed geminiResponse
	if err := json.UnmarshalRead(resp.Body, &parsed); err != nil {
		return "", errors.Wrap(err, errors.CodeUpstream, "Gemini returned an unreadable response")
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.Upstream("Gemini returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// errQuotaExhausted is deliberately a bare sentinel: a coded upstream error
// would make every upstream failure look like quota exhaustion.
var errQuotaExhausted = stderrors.New("model quota exhausted")

func isQuotaExhausted(err error) bool {
	return stderrors.Is(err, errQuotaExhausted)
}
