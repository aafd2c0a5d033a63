package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	domainerrors "github.com/bookwormapp/bookworm-server/internal/errors"
	"github.com/bookwormapp/bookworm-server/internal/recommend"
)

func (s *Server) registerRecommendRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "generateRecommendations",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommend",
		Summary:     "Generate recommendations",
		Description: "Runs the recommendation pipeline against the rated library, excluding previously shown titles",
		Tags:        []string{"Recommend"},
	}, s.handleRecommend)
}

// ReadBookInput is one caller-supplied book for profile building.
type ReadBookInput struct {
	Title       string `json:"title,omitempty" doc:"Book title"`
	Author      string `json:"author,omitempty" doc:"Book author"`
	Rating      int    `json:"rating,omitempty" doc:"Star rating, 0 means unrated"`
	Shelf       string `json:"shelf,omitempty" doc:"Shelf status"`
	Genre       string `json:"genre,omitempty" doc:"Genre label"`
	Review      string `json:"review,omitempty" doc:"Free-text review"`
	Bookshelves string `json:"bookshelves,omitempty" doc:"Comma-separated custom shelves"`
}

// RecommendRequest is one recommendation run. ReadBooks overrides the stored
// library when present; otherwise the rated records are used.
type RecommendRequest struct {
	ReadBooks  []ReadBookInput `json:"read_books,omitempty" doc:"Books to base the profile on; defaults to the rated library"`
	GenreMood  string          `json:"genre_mood,omitempty" doc:"Optional free-text genre craving"`
	ExcludeIDs []string        `json:"exclude_book_ids,omitempty" doc:"Extra recommendation IDs to exclude"`
	Count      int             `json:"count,omitempty" minimum:"0" maximum:"20" doc:"Number of recommendations, defaults to 5"`
}

// RecommendInput wraps the recommend request for Huma.
type RecommendInput struct {
	Body RecommendRequest
}

// RecommendResponse contains the pipeline output.
type RecommendResponse struct {
	Recommendations   []domain.Recommendation `json:"recommendations"`
	PreferenceSummary string                  `json:"preference_summary"`
}

// RecommendOutput wraps the recommend response for Huma.
type RecommendOutput struct {
	Body RecommendResponse
}

func (s *Server) handleRecommend(ctx context.Context, input *RecommendInput) (*RecommendOutput, error) {
	if s.recommender == nil {
		return nil, domainerrors.Upstream("no model provider is configured; set an API key for openai, anthropic, or gemini")
	}

	books := make([]domain.ImportedBook, 0, len(input.Body.ReadBooks))
	for _, b := range input.Body.ReadBooks {
		books = append(books, domain.ImportedBook{
			Title:       b.Title,
			Author:      b.Author,
			Rating:      b.Rating,
			Shelf:       b.Shelf,
			Genre:       b.Genre,
			Review:      b.Review,
			Bookshelves: b.Bookshelves,
		})
	}
	if len(books) == 0 {
		for _, rec := range s.library.GetRated() {
			books = append(books, domain.ImportedBook{
				Title:       rec.Title,
				Author:      rec.Author,
				Rating:      rec.Rating,
				Shelf:       rec.Shelf,
				Genre:       rec.Genre,
				Review:      rec.Review,
				Bookshelves: rec.Bookshelves,
				Source:      rec.Source,
			})
		}
	}

	// The shown set always applies on top of request-level exclusions.
	excludeIDs := input.Body.ExcludeIDs
	seen := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		seen[id] = struct{}{}
	}
	for _, id := range s.library.Shown() {
		if _, dup := seen[id]; !dup {
			excludeIDs = append(excludeIDs, id)
		}
	}

	result, err := s.recommender.Generate(ctx, recommend.Request{
		Books:      books,
		GenreMood:  input.Body.GenreMood,
		ExcludeIDs: excludeIDs,
		Count:      input.Body.Count,
	})
	if err != nil {
		return nil, err
	}

	shownIDs := make([]string, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		if r.GoogleBooksID != "" {
			shownIDs = append(shownIDs, r.GoogleBooksID)
		}
	}
	if err := s.library.AddShown(shownIDs); err != nil {
		s.logger.Warn("failed to record recommendations as shown", "error", err)
	}

	recs := result.Recommendations
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return &RecommendOutput{
		Body: RecommendResponse{
			Recommendations:   recs,
			PreferenceSummary: result.PreferenceSummary,
		},
	}, nil
}
