// Package api provides the HTTP API server and handlers for the Bookworm application.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookwormapp/bookworm-server/internal/config"
	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
	"github.com/bookwormapp/bookworm-server/internal/ratelimit"
	"github.com/bookwormapp/bookworm-server/internal/recommend"
	"github.com/bookwormapp/bookworm-server/internal/search"
	"github.com/bookwormapp/bookworm-server/internal/store"
	"github.com/bookwormapp/bookworm-server/internal/validation"
)

// BookSearcher is the external book database used by the public search
// endpoint. Satisfied by *googlebooks.Client; nil means search is unavailable.
type BookSearcher interface {
	Search(ctx context.Context, query string) ([]googlebooks.Book, error)
}

// Recommender runs the recommendation pipeline. Satisfied by
// *recommend.Service; nil means no model provider is configured.
type Recommender interface {
	Generate(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	library     *store.Library
	index       *search.LibraryIndex
	books       BookSearcher
	recommender Recommender
	instance    *domain.Instance
	validator   *validation.Validator
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger

	recommendLimiter *ratelimit.PerClient
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(library *store.Library, index *search.LibraryIndex, books BookSearcher, recommender Recommender, instance *domain.Instance, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		library:     library,
		index:       index,
		books:       books,
		recommender: recommender,
		instance:    instance,
		validator:   validation.New(),
		router:      chi.NewRouter(),
		logger:      logger,

		// Each recommendation run costs model API credits.
		recommendLimiter: ratelimit.NewPerClient(0.2, 3),
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("Bookworm API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)

	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerInstanceRoutes()
	s.registerLibraryRoutes()
	s.registerShownRoutes()
	s.registerBookSearchRoutes()
	s.registerRecommendRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := []string{"http://localhost:5173"}
	if cfg != nil && len(cfg.Server.CORSOrigins) > 0 {
		origins = cfg.Server.CORSOrigins
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(s.recommendRateLimit)
}
