// Package llm provides a minimal chat-completion client over the HTTP APIs
// of the supported providers. The recommendation pipeline only ever needs one
// operation: send a system prompt plus a user prompt, get text back.
package llm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

// Client completes a prompt pair into raw model output text.
type Client interface {
	// Complete sends the system and user prompts and returns the model's
	// text response.
	Complete(ctx context.Context, system, prompt string) (string, error)
	// Name identifies the provider for logging.
	Name() string
}

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string // empty means the provider default
	BaseURL  string // empty means the provider's public endpoint
}

// New builds the provider named by the config.
func New(cfg Config, logger *slog.Logger) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg, logger), nil
	case ProviderGemini:
		return NewGemini(cfg, logger), nil
	default:
		return nil, errors.Validationf("unknown LLM provider %q", cfg.Provider)
	}
}

const maxOutputTokens = 4096

func newHTTPClient() *http.Client {
	// Ranking a candidate list can take a while on larger models.
	return &http.Client{Timeout: 120 * time.Second}
}
