package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookwormapp/bookworm-server/internal/config"
	"github.com/bookwormapp/bookworm-server/internal/llm"
	"github.com/bookwormapp/bookworm-server/internal/logger"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
	"github.com/bookwormapp/bookworm-server/internal/recommend"
)

// ProvideGoogleBooksClient provides the Google Books client. The client works
// without an API key, at a lower quota; only the search endpoint uses it then,
// the recommender goes model-only.
func ProvideGoogleBooksClient(i do.Injector) (*googlebooks.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.GoogleBooks.APIKey == "" {
		log.Info("Google Books API key not set, search uses the unauthenticated quota and recommendations run model-only")
	}
	return googlebooks.NewClient(cfg.GoogleBooks.APIKey, log.Logger), nil
}

// LLMClientHandle wraps the model client. Client is nil when no provider key
// is configured; the server still runs, recommendations just report it.
type LLMClientHandle struct {
	Client llm.Client
}

// ProvideLLMClient provides the configured model provider client.
func ProvideLLMClient(i do.Injector) (*LLMClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	apiKey := cfg.LLM.APIKey()
	if apiKey == "" {
		log.Warn("No model provider API key configured, recommendations are disabled",
			"provider", cfg.LLM.Provider)
		return &LLMClientHandle{}, nil
	}

	client, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   apiKey,
		Model:    cfg.LLM.Model,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Model provider ready", "provider", client.Name())
	return &LLMClientHandle{Client: client}, nil
}

// RecommenderHandle wraps the recommendation service. Service is nil when no
// model provider is configured.
type RecommenderHandle struct {
	Service *recommend.Service
}

// ProvideRecommender provides the recommendation pipeline.
func ProvideRecommender(i do.Injector) (*RecommenderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	llmHandle := do.MustInvoke[*LLMClientHandle](i)
	books := do.MustInvoke[*googlebooks.Client](i)

	if llmHandle.Client == nil {
		return &RecommenderHandle{}, nil
	}

	return &RecommenderHandle{
		Service: recommend.NewService(llmHandle.Client, candidateSource(cfg, books), log.Logger),
	}, nil
}

// candidateSource gates the pipeline's book database on the configured key:
// without one the recommender runs from model knowledge alone instead of
// burning the unauthenticated search quota on candidate queries. The no-key
// nil must stay a nil interface, not a typed nil, for the mode check to fire.
func candidateSource(cfg *config.Config, client *googlebooks.Client) recommend.BooksClient {
	if cfg.GoogleBooks.APIKey == "" {
		return nil
	}
	return client
}
