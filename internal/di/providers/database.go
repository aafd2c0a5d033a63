package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookwormapp/bookworm-server/internal/config"
	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/logger"
	"github.com/bookwormapp/bookworm-server/internal/store"
)

// BlobsHandle wraps the Badger blob store with shutdown capability.
type BlobsHandle struct {
	*store.BadgerBlobs
}

// Shutdown implements do.Shutdownable.
func (h *BlobsHandle) Shutdown() error {
	return h.Close()
}

// ProvideBlobs provides the persistent blob store.
func ProvideBlobs(i do.Injector) (*BlobsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "db")
	blobs, err := store.OpenBadger(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)
	return &BlobsHandle{BadgerBlobs: blobs}, nil
}

// ProvideLibrary provides the book record store.
func ProvideLibrary(i do.Injector) (*store.Library, error) {
	log := do.MustInvoke[*logger.Logger](i)
	blobs := do.MustInvoke[*BlobsHandle](i)

	library := store.NewLibrary(blobs.BadgerBlobs, log.Logger)
	log.Info("Library loaded", "records", library.Count(), "shown", len(library.Shown()))
	return library, nil
}

// ProvideInstance provides the persisted server instance identity.
func ProvideInstance(i do.Injector) (*domain.Instance, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	blobs := do.MustInvoke[*BlobsHandle](i)

	instance, err := store.LoadOrCreateInstance(blobs.BadgerBlobs, cfg.Server.Name, serverVersion)
	if err != nil {
		return nil, err
	}

	log.Info("Server instance ready",
		"instance_id", instance.ID,
		"name", instance.Name,
		"created_at", instance.CreatedAt,
	)
	return instance, nil
}
