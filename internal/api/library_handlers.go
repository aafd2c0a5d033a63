package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	domainerrors "github.com/bookwormapp/bookworm-server/internal/errors"
	"github.com/bookwormapp/bookworm-server/internal/importer/goodreads"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/import",
		Summary:     "Import a Goodreads export",
		Description: "Parses a Goodreads CSV export and merges it into the library by title/author identity",
		Tags:        []string{"Library"},
	}, s.handleImportLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/books",
		Summary:     "List library books",
		Description: "Returns all stored book records in persisted order",
		Tags:        []string{"Library"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/books",
		Summary:     "Add or update a book",
		Description: "Inserts a book manually, or fully replaces an existing record with the same title/author identity",
		Tags:        []string{"Library"},
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRatedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/books/rated",
		Summary:     "List rated books",
		Description: "Returns the records with a rating of at least 1, the corpus the recommender works from",
		Tags:        []string{"Library"},
	}, s.handleListRatedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/stats",
		Summary:     "Library statistics",
		Description: "Returns record, rating, and shown-set counts",
		Tags:        []string{"Library"},
	}, s.handleLibraryStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/search",
		Summary:     "Search the library",
		Description: "Full-text search over stored records by title, author, review, and shelves",
		Tags:        []string{"Library"},
	}, s.handleSearchLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID:   "resetLibrary",
		Method:        http.MethodDelete,
		Path:          "/api/v1/library",
		Summary:       "Reset the library",
		Description:   "Deletes all book records and clears the shown set",
		Tags:          []string{"Library"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleResetLibrary)
}

// === DTOs ===

// ImportInput carries the raw CSV export body.
type ImportInput struct {
	RawBody []byte
}

// ImportResponse reports the outcome of a CSV import.
type ImportResponse struct {
	Imported int `json:"imported" doc:"Rows parsed from the export"`
	Updated  int `json:"updated" doc:"Existing records that were overwritten"`
	Total    int `json:"total" doc:"Record count after the merge"`
}

// ImportOutput wraps the import response for Huma.
type ImportOutput struct {
	Body ImportResponse
}

// BookListResponse contains book records in API responses.
type BookListResponse struct {
	Books []domain.BookRecord `json:"books"`
	Count int                 `json:"count"`
}

// BookListOutput wraps a book list for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// AddBookRequest is the manual-add and rating-edit payload.
// The schema leaves every field optional so the validator owns the error
// messages; huma only parses the shape.
type AddBookRequest struct {
	Title       string `json:"title,omitempty" validate:"required" doc:"Book title"`
	Author      string `json:"author,omitempty" validate:"required" doc:"Book author"`
	Rating      int    `json:"rating,omitempty" validate:"gte=0,lte=5" doc:"Star rating, 0 means unrated"`
	Shelf       string `json:"shelf,omitempty" doc:"Shelf status, defaults to read"`
	Genre       string `json:"genre,omitempty" doc:"Genre label"`
	Review      string `json:"review,omitempty" doc:"Free-text review"`
	Bookshelves string `json:"bookshelves,omitempty" doc:"Comma-separated custom shelves"`
	ISBN        string `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13"`
}

// AddBookInput wraps the add-book request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// BookOutput wraps a single stored record for Huma.
type BookOutput struct {
	Body domain.BookRecord
}

// StatsResponse contains library statistics.
type StatsResponse struct {
	Total int `json:"total" doc:"Stored record count"`
	Rated int `json:"rated" doc:"Records with a rating of at least 1"`
	Shown int `json:"shown" doc:"Recommendation IDs in the shown set"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

// SearchLibraryInput carries the library search query.
type SearchLibraryInput struct {
	Q     string `query:"q" doc:"Search query"`
	Limit int    `query:"limit" doc:"Maximum results, defaults to 20"`
}

// === Handlers ===

func (s *Server) handleImportLibrary(_ context.Context, input *ImportInput) (*ImportOutput, error) {
	books, err := goodreads.Parse(bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, err
	}

	result, err := s.library.MergeAll(books)
	if err != nil {
		s.logger.Error("failed to merge imported books", "error", err)
		return nil, domainerrors.Internal("failed to store imported books")
	}

	s.logger.Info("library import complete",
		"imported", len(books),
		"updated", result.Updated,
		"total", result.Total,
	)

	return &ImportOutput{
		Body: ImportResponse{
			Imported: len(books),
			Updated:  result.Updated,
			Total:    result.Total,
		},
	}, nil
}

func (s *Server) handleListBooks(_ context.Context, _ *struct{}) (*BookListOutput, error) {
	books := s.library.GetAll()
	return &BookListOutput{
		Body: BookListResponse{Books: books, Count: len(books)},
	}, nil
}

func (s *Server) handleAddBook(_ context.Context, input *AddBookInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	shelf := input.Body.Shelf
	if shelf == "" {
		shelf = domain.ShelfRead
	}

	book := domain.ImportedBook{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Rating:      input.Body.Rating,
		Shelf:       shelf,
		Genre:       input.Body.Genre,
		Review:      input.Body.Review,
		Bookshelves: input.Body.Bookshelves,
		ISBN:        input.Body.ISBN,
		Source:      domain.SourceManual,
	}

	if err := s.library.UpsertOne(book); err != nil {
		s.logger.Error("failed to store book", "error", err, "title", book.Title)
		return nil, domainerrors.Internal("failed to store book")
	}

	rec, ok := s.library.Get(domain.IdentityKey(book.Title, book.Author))
	if !ok {
		return nil, domainerrors.Internal("stored book not found after write")
	}
	return &BookOutput{Body: rec}, nil
}

func (s *Server) handleListRatedBooks(_ context.Context, _ *struct{}) (*BookListOutput, error) {
	books := s.library.GetRated()
	return &BookListOutput{
		Body: BookListResponse{Books: books, Count: len(books)},
	}, nil
}

func (s *Server) handleLibraryStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	return &StatsOutput{
		Body: StatsResponse{
			Total: s.library.Count(),
			Rated: len(s.library.GetRated()),
			Shown: len(s.library.Shown()),
		},
	}, nil
}

func (s *Server) handleSearchLibrary(ctx context.Context, input *SearchLibraryInput) (*BookListOutput, error) {
	q := strings.TrimSpace(input.Q)
	if q == "" {
		return nil, domainerrors.Validation("search query cannot be empty")
	}
	if s.index == nil {
		return nil, domainerrors.Internal("search index is not configured")
	}

	hits, err := s.index.Search(ctx, q, input.Limit)
	if err != nil {
		s.logger.Error("library search failed", "error", err, "query", q)
		return nil, domainerrors.Internal("library search failed")
	}

	books := make([]domain.BookRecord, 0, len(hits))
	for _, hit := range hits {
		if rec, ok := s.library.Get(hit.Key); ok {
			books = append(books, rec)
		}
	}
	return &BookListOutput{
		Body: BookListResponse{Books: books, Count: len(books)},
	}, nil
}

func (s *Server) handleResetLibrary(_ context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.library.Reset(); err != nil {
		s.logger.Error("failed to reset library", "error", err)
		return nil, domainerrors.Internal("failed to reset library")
	}
	s.logger.Info("library reset")
	return &struct{}{}, nil
}
