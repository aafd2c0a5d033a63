package recommend

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
)

const preferenceSystemPrompt = `You are a literary analyst helping to understand a reader's taste.
You will receive a list of books a person has read, with their personal ratings (1-5 stars).
Analyze the patterns and return a JSON object with these exact keys:
{
  "summary": "2-3 sentence human-readable description of their taste",
  "genres": ["list of genres/subgenres they enjoy"],
  "themes": ["recurring themes: e.g. found family, political intrigue, grief, coming of age"],
  "writing_styles": ["preferences: e.g. lyrical prose, fast-paced plotting, unreliable narrator"],
  "loved_authors": ["authors they rated highly (4-5 stars)"],
  "disliked_elements": ["patterns from low-rated books (1-2 stars)"],
  "google_books_queries": ["4-6 search queries to find similar books, using subject: and inauthor: prefixes. At least half should target authors NOT in the user's read list."]
}
If a genre_mood is provided in the user message, heavily weight that genre in google_books_queries.
Pay particular attention to 4-5 star books when forming the taste profile.
Only return valid JSON - no markdown fences, no text before or after.`

const rankingSystemPrompt = `You are a personal book recommender.
You will receive:
1. A reader's taste profile (JSON)
2. A list of candidate books (JSON array) from Google Books
3. The target count of recommendations

Return a JSON array of exactly the target count of most suitable books, ordered best-to-worst match.
Each object must have these exact keys:
{
  "google_books_id": "...",
  "genre": "e.g. Hard Science Fiction, Gothic Fantasy, Cozy Mystery",
  "reason": "2-3 sentence explanation referencing specific books from the user's history by title",
  "predicted_rating": 4.2,
  "is_new_author": true
}
Rules:
- Only include books from the candidates list (no hallucinated titles)
- At least 2 books MUST be by authors NOT in the user's loved_authors or read list (mark these is_new_author: true)
- Reason must be personalized and cite specific titles from the user's reading history
- predicted_rating is a float 1.0-5.0 estimating how much this reader will enjoy it
Only return valid JSON array - no markdown fences, no text before or after.`

// llmOnlySystemPrompt is used when no Google Books key is configured: the
// model recommends from its own knowledge instead of ranking candidates.
const llmOnlySystemPrompt = `You are a personal book recommender.
You will receive a reader's taste profile (JSON) and a target count.

Since no external book database is available, recommend real, well-known books entirely from your knowledge.
Return a JSON array of exactly the target count of books, ordered best-to-worst match.
Each object must have these exact keys:
{
  "title": "exact book title",
  "author": "author full name",
  "genre": "e.g. Hard Science Fiction, Gothic Fantasy, Cozy Mystery",
  "description": "2-3 sentence plot summary",
  "reason": "2-3 sentence explanation referencing specific books from the user's history by title",
  "predicted_rating": 4.2,
  "is_new_author": true
}
Rules:
- Only recommend real published books you are confident exist
- At least 2 must be by authors NOT in the user's loved_authors or read list (mark is_new_author: true)
- Do NOT recommend any book already in the user's read list
- Reason must be personalized and cite specific titles from the user's history
- predicted_rating is a float 1.0-5.0 estimating enjoyment
Only return valid JSON array - no markdown fences, no text before or after.`

// buildPreferencePrompt lists the reader's books one per line with rating,
// review snippet, and shelves.
func buildPreferencePrompt(books []domain.ImportedBook, genreMood string) string {
	var sb strings.Builder
	sb.WriteString("Books I have read:\n")
	for i, b := range books {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s by %s [%d/5]", b.Title, b.Author, b.Rating)
		if b.Review != "" {
			fmt.Fprintf(&sb, " | Review snippet: %q", snippet(b.Review, 120))
		}
		if b.Bookshelves != "" {
			fmt.Fprintf(&sb, " | Shelves: %s", b.Bookshelves)
		}
	}
	if genreMood != "" {
		fmt.Fprintf(&sb, "\n\nGenre mood: The user currently feels like reading: %s", genreMood)
	}
	return sb.String()
}

// candidateSummary is the trimmed candidate shape sent to the ranking model.
// Full descriptions would blow the context window for nothing.
type candidateSummary struct {
	GoogleBooksID string   `json:"google_books_id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
}

func buildRankingPrompt(prefs *Preferences, candidates []googlebooks.Book, count int) (string, error) {
	summaries := make([]candidateSummary, 0, len(candidates))
	for _, c := range candidates {
		summaries = append(summaries, candidateSummary{
			GoogleBooksID: c.ID,
			Title:         c.Title,
			Author:        c.Author,
			Description:   snippet(c.Description, 150),
			Categories:    c.Categories,
		})
	}

	prefsJSON, err := json.Marshal(prefs, jsontext.WithIndent("  "))
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}
	candidatesJSON, err := json.Marshal(summaries, jsontext.WithIndent("  "))
	if err != nil {
		return "", fmt.Errorf("marshal candidates: %w", err)
	}

	return fmt.Sprintf(
		"Reader preferences:\n%s\n\nTarget recommendation count: %d\n\nCandidate books:\n%s",
		prefsJSON, count, candidatesJSON,
	), nil
}

func buildLLMOnlyPrompt(prefs *Preferences, books []domain.ImportedBook, count int) (string, error) {
	prefsJSON, err := json.Marshal(prefs, jsontext.WithIndent("  "))
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}

	var exclude strings.Builder
	for i, b := range books {
		if i > 0 {
			exclude.WriteByte('\n')
		}
		fmt.Fprintf(&exclude, "- %s by %s", b.Title, b.Author)
	}

	return fmt.Sprintf(
		"Reader preferences:\n%s\n\nBooks to EXCLUDE (already read):\n%s\n\nTarget recommendation count: %d",
		prefsJSON, exclude.String(), count,
	), nil
}

// snippet truncates s to at most n runes.
func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
