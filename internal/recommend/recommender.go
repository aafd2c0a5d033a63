// Package recommend implements the recommendation pipeline: distill a taste
// profile from the reader's rated books, gather candidates from Google
// Books, and have the model rank them. Without a Google Books key the model
// recommends straight from its own knowledge instead.
package recommend

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/errors"
	"github.com/bookwormapp/bookworm-server/internal/llm"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
)

// MinRatedBooks is the smallest library that produces a usable taste profile.
const MinRatedBooks = 3

const (
	defaultCount      = 5
	candidateTarget   = 50
	maxGenreQueries   = 5
	maxAuthorQueries  = 2
	defaultGenre      = "Fiction"
	defaultPrediction = 3.5
	syntheticIDPrefix = "llm-"
)

// BooksClient is the candidate source. Satisfied by *googlebooks.Client; nil
// means no Google Books key is configured and the pipeline goes model-only.
type BooksClient interface {
	FetchCandidates(ctx context.Context, queries []string, excludeTitles map[string]struct{}, targetCount int) []googlebooks.Book
}

// Preferences is the taste profile the model distills from rated books.
type Preferences struct {
	Summary            string   `json:"summary"`
	Genres             []string `json:"genres"`
	Themes             []string `json:"themes"`
	WritingStyles      []string `json:"writing_styles"`
	LovedAuthors       []string `json:"loved_authors"`
	DislikedElements   []string `json:"disliked_elements"`
	GoogleBooksQueries []string `json:"google_books_queries"`
}

// Request is one recommendation run.
type Request struct {
	Books      []domain.ImportedBook // the reader's books; unrated entries are ignored
	GenreMood  string                // optional free-text genre craving
	ExcludeIDs []string              // previously surfaced recommendation IDs
	Count      int                   // 0 means the default of 5
}

// Result is the pipeline output.
type Result struct {
	Recommendations   []domain.Recommendation
	PreferenceSummary string
}

// Service runs the pipeline.
type Service struct {
	llm    llm.Client
	books  BooksClient
	logger *slog.Logger
}

// NewService creates a recommendation service. books may be nil, which
// forces model-only mode.
func NewService(llmClient llm.Client, books BooksClient, logger *slog.Logger) *Service {
	return &Service{llm: llmClient, books: books, logger: logger}
}

// Generate runs the full pipeline for one request.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	rated := make([]domain.ImportedBook, 0, len(req.Books))
	for _, b := range req.Books {
		if b.Rating >= 1 {
			rated = append(rated, b)
		}
	}
	if len(rated) < MinRatedBooks {
		return nil, errors.EmptyInput(
			"Need at least 3 rated books to generate recommendations. Add more ratings in My Library & Ratings.")
	}

	count := req.Count
	if count <= 0 {
		count = defaultCount
	}

	prefs, err := s.extractPreferences(ctx, rated, req.GenreMood)
	if err != nil {
		return nil, err
	}

	var recs []domain.Recommendation
	if s.books != nil {
		recs, err = s.rankCandidates(ctx, prefs, rated, req.ExcludeIDs, count)
	} else {
		s.info("no book database configured, recommending from model knowledge")
		recs, err = s.modelOnly(ctx, prefs, rated, req.ExcludeIDs, count)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Recommendations: recs, PreferenceSummary: prefs.Summary}, nil
}

// extractPreferences is step one: always runs, regardless of mode.
func (s *Service) extractPreferences(ctx context.Context, rated []domain.ImportedBook, genreMood string) (*Preferences, error) {
	s.info("extracting preference profile", "rated_books", len(rated))

	raw, err := s.llm.Complete(ctx, preferenceSystemPrompt, buildPreferencePrompt(rated, genreMood))
	if err != nil {
		return nil, err
	}

	var prefs Preferences
	if err := parseResilient(raw, "preference profile", &prefs, s.logger); err != nil {
		return nil, err
	}

	s.info("preference profile extracted",
		"genres", strings.Join(prefs.Genres, ", "),
		"queries", len(prefs.GoogleBooksQueries),
	)
	return &prefs, nil
}

// rankItem is one entry of the model's ranking output. Pointer fields
// distinguish "absent" from zero so defaults can fill in.
type rankItem struct {
	GoogleBooksID   string   `json:"google_books_id"`
	Genre           string   `json:"genre"`
	Reason          string   `json:"reason"`
	PredictedRating *float64 `json:"predicted_rating"`
	IsNewAuthor     *bool    `json:"is_new_author"`
}

// rankCandidates is the Google Books path: gather candidates, have the model
// rank them, keep only rankings that refer to real candidates. Zero usable
// candidates falls back to model-only mode rather than failing.
func (s *Service) rankCandidates(ctx context.Context, prefs *Preferences, rated []domain.ImportedBook, excludeIDs []string, count int) ([]domain.Recommendation, error) {
	queries := make([]string, 0, maxGenreQueries+maxAuthorQueries)
	queries = append(queries, prefs.GoogleBooksQueries[:min(len(prefs.GoogleBooksQueries), maxGenreQueries)]...)
	for i, author := range prefs.LovedAuthors {
		if i >= maxAuthorQueries {
			break
		}
		queries = append(queries, "inauthor:"+author)
	}

	excludeTitles := make(map[string]struct{}, len(rated))
	for _, b := range rated {
		excludeTitles[strings.ToLower(strings.TrimSpace(b.Title))] = struct{}{}
	}
	excludeIDSet := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excludeIDSet[id] = struct{}{}
	}

	s.info("fetching candidates", "queries", len(queries))
	fetched := s.books.FetchCandidates(ctx, queries, excludeTitles, candidateTarget)

	candidates := make([]googlebooks.Book, 0, len(fetched))
	for _, c := range fetched {
		if _, excluded := excludeIDSet[c.ID]; !excluded {
			candidates = append(candidates, c)
		}
	}
	s.info("candidates after filtering", "count", len(candidates))

	if len(candidates) == 0 {
		s.warn("no usable candidates, falling back to model knowledge")
		return s.modelOnly(ctx, prefs, rated, excludeIDs, count)
	}

	prompt, err := buildRankingPrompt(prefs, candidates, count)
	if err != nil {
		return nil, err
	}
	raw, err := s.llm.Complete(ctx, rankingSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var rankings []rankItem
	if err := parseResilient(raw, "candidate ranking", &rankings, s.logger); err != nil {
		return nil, err
	}

	candidateMap := make(map[string]googlebooks.Book, len(candidates))
	for _, c := range candidates {
		candidateMap[c.ID] = c
	}
	knownAuthors := authorSet(rated)

	final := make([]domain.Recommendation, 0, count)
	for _, item := range rankings {
		c, ok := candidateMap[item.GoogleBooksID]
		if !ok {
			s.warn("model returned unknown candidate id, skipping", "id", item.GoogleBooksID)
			continue
		}
		_, known := knownAuthors[strings.ToLower(strings.TrimSpace(c.Author))]
		final = append(final, domain.Recommendation{
			Title:           c.Title,
			Author:          c.Author,
			Description:     c.Description,
			CoverURL:        c.CoverURL,
			GoogleBooksID:   c.ID,
			Genre:           stringOr(item.Genre, defaultGenre),
			Reason:          item.Reason,
			PredictedRating: floatOr(item.PredictedRating, defaultPrediction),
			IsNewAuthor:     boolOr(item.IsNewAuthor, !known),
		})
		if len(final) >= count {
			break
		}
	}
	return final, nil
}

// modelOnlyItem is one entry of the knowledge-mode output.
type modelOnlyItem struct {
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Genre           string   `json:"genre"`
	Description     string   `json:"description"`
	Reason          string   `json:"reason"`
	PredictedRating *float64 `json:"predicted_rating"`
	IsNewAuthor     *bool    `json:"is_new_author"`
}

// modelOnly asks the model to recommend from its own knowledge. Each result
// gets a stable synthetic ID derived from its identity so the shown-set can
// track it across sessions, exactly like a Google Books volume ID would.
func (s *Service) modelOnly(ctx context.Context, prefs *Preferences, rated []domain.ImportedBook, excludeIDs []string, count int) ([]domain.Recommendation, error) {
	prompt, err := buildLLMOnlyPrompt(prefs, rated, count)
	if err != nil {
		return nil, err
	}
	raw, err := s.llm.Complete(ctx, llmOnlySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var items []modelOnlyItem
	if err := parseResilient(raw, "model-only ranking", &items, s.logger); err != nil {
		return nil, err
	}

	excludeTitles := make(map[string]struct{}, len(rated))
	for _, b := range rated {
		excludeTitles[strings.ToLower(strings.TrimSpace(b.Title))] = struct{}{}
	}
	knownAuthors := authorSet(rated)

	seen := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		seen[id] = struct{}{}
	}

	final := make([]domain.Recommendation, 0, count)
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		author := strings.TrimSpace(item.Author)
		if title == "" {
			continue
		}
		if _, read := excludeTitles[strings.ToLower(title)]; read {
			continue
		}

		id := SyntheticID(title, author)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		_, known := knownAuthors[strings.ToLower(author)]
		final = append(final, domain.Recommendation{
			Title:           title,
			Author:          author,
			Description:     item.Description,
			GoogleBooksID:   id,
			Genre:           stringOr(item.Genre, defaultGenre),
			Reason:          item.Reason,
			PredictedRating: floatOr(item.PredictedRating, defaultPrediction),
			IsNewAuthor:     boolOr(item.IsNewAuthor, !known),
		})
		if len(final) >= count {
			break
		}
	}
	return final, nil
}

// SyntheticID derives a stable ID for a model-invented recommendation. The
// same title/author pair always maps to the same ID, so the shown-set
// deduplicates across sessions.
func SyntheticID(title, author string) string {
	return syntheticIDPrefix + uuid.NewSHA1(uuid.NameSpaceDNS, []byte(title+"::"+author)).String()
}

func (s *Service) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func authorSet(books []domain.ImportedBook) map[string]struct{} {
	set := make(map[string]struct{}, len(books))
	for _, b := range books {
		set[strings.ToLower(strings.TrimSpace(b.Author))] = struct{}{}
	}
	return set
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func floatOr(f *float64, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	return *f
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
