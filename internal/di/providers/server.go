package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/bookwormapp/bookworm-server/internal/api"
	"github.com/bookwormapp/bookworm-server/internal/config"
	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/logger"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
	"github.com/bookwormapp/bookworm-server/internal/store"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*store.Library](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	books := do.MustInvoke[*googlebooks.Client](i)
	recommenderHandle := do.MustInvoke[*RecommenderHandle](i)
	instance := do.MustInvoke[*domain.Instance](i)

	// A nil *recommend.Service must stay a nil interface so the handler's
	// not-configured check fires.
	var recommender api.Recommender
	if recommenderHandle.Service != nil {
		recommender = recommenderHandle.Service
	}

	handler := api.NewServer(library, indexHandle.LibraryIndex, books, recommender, instance, cfg, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
