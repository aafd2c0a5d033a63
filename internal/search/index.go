// Package search provides full-text search over the library using Bleve.
// The index lives in memory and is rebuilt from the record store on startup;
// a personal library is small enough that rebuilding costs nothing, and it
// keeps the durable state in exactly one place.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/bookwormapp/bookworm-server/internal/domain"
)

// LibraryIndex wraps an in-memory Bleve index over book records.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects the index swap during Clear and Rebuild.
type LibraryIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewLibraryIndex creates an empty in-memory index.
func NewLibraryIndex(logger *slog.Logger) (*LibraryIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &LibraryIndex{index: index, logger: logger}, nil
}

// Close releases the index.
func (s *LibraryIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexRecord indexes one record under its identity key. An existing document
// under the same key is replaced, matching the store's overwrite semantics.
func (s *LibraryIndex) IndexRecord(rec *domain.BookRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(rec.Key, recordToMap(rec))
}

// Rebuild replaces the entire index contents with the given records.
func (s *LibraryIndex) Rebuild(recs []domain.BookRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resetLocked(); err != nil {
		return err
	}

	batch := s.index.NewBatch()
	for i := range recs {
		if err := batch.Index(recs[i].Key, recordToMap(&recs[i])); err != nil {
			return fmt.Errorf("batch index %s: %w", recs[i].Key, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("rebuilt library search index", "records", len(recs))
	}
	return nil
}

// Clear empties the index.
func (s *LibraryIndex) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

// resetLocked swaps in a fresh empty index. Cheaper and simpler than
// enumerating and deleting every document.
func (s *LibraryIndex) resetLocked() error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	s.index = fresh
	return nil
}

// DocumentCount returns the number of indexed records.
func (s *LibraryIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Hit is a single search match.
type Hit struct {
	Key    string  `json:"key"` // record identity key
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

// Search runs a full-text query over the library and returns matches ordered
// by relevance.
func (s *LibraryIndex) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = []string{"title", "author"}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		h := Hit{Key: hit.ID, Score: hit.Score}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			h.Author = a
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// buildQuery matches title and author with boosts, plus a fuzzy title match
// for typo tolerance and a review/bookshelves match at low weight.
func buildQuery(q string) query.Query {
	titleMatch := bleve.NewMatchQuery(q)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(q)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	fuzzy := bleve.NewFuzzyQuery(q)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)

	reviewMatch := bleve.NewMatchQuery(q)
	reviewMatch.SetField("review")
	reviewMatch.SetBoost(0.5)

	shelvesMatch := bleve.NewMatchQuery(q)
	shelvesMatch.SetField("bookshelves")
	shelvesMatch.SetBoost(0.5)

	return bleve.NewDisjunctionQuery(titleMatch, authorMatch, fuzzy, reviewMatch, shelvesMatch)
}

// recordToMap converts a record to a map with lowercase field names so they
// match the index mapping; Bleve would otherwise index the capitalized Go
// field names.
func recordToMap(rec *domain.BookRecord) map[string]interface{} {
	m := map[string]interface{}{
		"title":  rec.Title,
		"author": rec.Author,
	}
	if rec.Review != "" {
		m["review"] = rec.Review
	}
	if rec.Bookshelves != "" {
		m["bookshelves"] = rec.Bookshelves
	}
	if rec.Genre != "" {
		m["genre"] = rec.Genre
	}
	return m
}
