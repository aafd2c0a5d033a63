package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookwormapp/bookworm-server/internal/errors"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
)

func (s *Server) registerBookSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search the book database",
		Description: "Searches Google Books for titles to add manually",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)
}

// SearchBooksInput carries the external search query.
type SearchBooksInput struct {
	Q string `query:"q" doc:"Search query, at least 2 characters"`
}

// SearchBooksResponse contains external search results.
type SearchBooksResponse struct {
	Results []googlebooks.Book `json:"results"`
	Count   int                `json:"count"`
}

// SearchBooksOutput wraps the search response for Huma.
type SearchBooksOutput struct {
	Body SearchBooksResponse
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	q := strings.TrimSpace(input.Q)
	if len(q) < 2 {
		return nil, domainerrors.Validation("search query must be at least 2 characters")
	}
	if s.books == nil {
		return nil, domainerrors.Upstream("book search is not available")
	}

	results, err := s.books.Search(ctx, q)
	if err != nil {
		s.logger.Error("book search failed", "error", err, "query", q)
		return nil, err
	}

	return &SearchBooksOutput{
		Body: SearchBooksResponse{Results: results, Count: len(results)},
	}, nil
}
