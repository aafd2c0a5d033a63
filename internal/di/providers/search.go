package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookwormapp/bookworm-server/internal/logger"
	"github.com/bookwormapp/bookworm-server/internal/search"
	"github.com/bookwormapp/bookworm-server/internal/store"
)

// SearchIndexHandle wraps the library search index with shutdown capability.
type SearchIndexHandle struct {
	*search.LibraryIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory search index, rebuilt from the
// library on startup and kept in sync through the store's indexer hook.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*store.Library](i)

	index, err := search.NewLibraryIndex(log.Logger)
	if err != nil {
		return nil, err
	}
	library.SetSearchIndexer(index)

	count, err := index.DocumentCount()
	if err == nil {
		log.Info("Search index ready", "documents", count)
	}

	return &SearchIndexHandle{LibraryIndex: index}, nil
}
