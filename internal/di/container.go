// Package di provides dependency injection configuration for the Bookworm server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookwormapp/bookworm-server/internal/config"
	"github.com/bookwormapp/bookworm-server/internal/di/providers"
	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/logger"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
	"github.com/bookwormapp/bookworm-server/internal/store"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideBlobs)
	do.Provide(injector, providers.ProvideLibrary)
	do.Provide(injector, providers.ProvideInstance)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// External clients
	do.Provide(injector, providers.ProvideGoogleBooksClient)
	do.Provide(injector, providers.ProvideLLMClient)
	do.Provide(injector, providers.ProvideRecommender)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.BlobsHandle](injector)
	_ = do.MustInvoke[*store.Library](injector)
	_ = do.MustInvoke[*domain.Instance](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*googlebooks.Client](injector)
	_ = do.MustInvoke[*providers.LLMClientHandle](injector)
	_ = do.MustInvoke[*providers.RecommenderHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
