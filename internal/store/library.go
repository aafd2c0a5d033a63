package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bookwormapp/bookworm-server/internal/domain"
)

// SearchIndexer is the interface for keeping the search index in sync with
// store changes without depending on the search implementation.
type SearchIndexer interface {
	IndexRecord(rec *domain.BookRecord) error
	Rebuild(recs []domain.BookRecord) error
	Clear() error
}

// NoopIndexer is a no-op SearchIndexer for testing.
type NoopIndexer struct{}

// IndexRecord is a no-op.
func (NoopIndexer) IndexRecord(*domain.BookRecord) error { return nil }

// Rebuild is a no-op.
func (NoopIndexer) Rebuild([]domain.BookRecord) error { return nil }

// Clear is a no-op.
func (NoopIndexer) Clear() error { return nil }

// MergeResult reports the outcome of a bulk merge.
type MergeResult struct {
	Total   int `json:"total"`   // record count after the merge
	Updated int `json:"updated"` // pre-existing records that were overwritten
}

// Library is the persisted book record store plus the shown-set tracker.
//
// Exactly one record exists per identity key at any time; a write with a
// colliding key fully replaces the prior record (last-write-wins, no
// field-level patching) and stamps a fresh LastUpdated. There is no merge
// conflict detection: concurrent writers race and the last one wins, same
// as the original single-tab storage model.
type Library struct {
	mu     sync.Mutex
	blobs  Blobs
	logger *slog.Logger

	records map[string]domain.BookRecord
	order   []string // identity keys in persisted order

	shown    []string // shown recommendation IDs in insertion order
	shownSet map[string]struct{}

	indexer SearchIndexer
}

// NewLibrary creates a library store on top of the given blob storage and
// loads any persisted state. A corrupt or missing blob degrades to an empty
// store: initialization is infallible from the caller's perspective.
func NewLibrary(blobs Blobs, logger *slog.Logger) *Library {
	l := &Library{
		blobs:    blobs,
		logger:   logger,
		records:  make(map[string]domain.BookRecord),
		shownSet: make(map[string]struct{}),
		indexer:  NoopIndexer{},
	}
	l.load()
	return l
}

// SetSearchIndexer sets the search indexer and rebuilds it from the loaded
// records. Set after store creation to avoid a circular dependency between
// store and search.
func (l *Library) SetSearchIndexer(indexer SearchIndexer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.indexer = indexer
	if err := indexer.Rebuild(l.snapshotLocked()); err != nil && l.logger != nil {
		l.logger.Warn("failed to rebuild search index", "error", err)
	}
}

// load reads persisted state. Read failures are absorbed: a store that cannot
// be read starts empty rather than crashing the application on boot.
func (l *Library) load() {
	if data, err := l.blobs.Get(BlobBooks); err == nil {
		var recs []domain.BookRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			l.warn("discarding unreadable book records", err)
		} else {
			for _, rec := range recs {
				if _, exists := l.records[rec.Key]; !exists {
					l.order = append(l.order, rec.Key)
				}
				l.records[rec.Key] = rec
			}
		}
	} else if !errors.Is(err, ErrBlobNotFound) {
		l.warn("failed to read book records", err)
	}

	if data, err := l.blobs.Get(BlobShown); err == nil {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			l.warn("discarding unreadable shown set", err)
		} else {
			for _, id := range ids {
				if _, dup := l.shownSet[id]; !dup {
					l.shown = append(l.shown, id)
					l.shownSet[id] = struct{}{}
				}
			}
		}
	} else if !errors.Is(err, ErrBlobNotFound) {
		l.warn("failed to read shown set", err)
	}
}

func (l *Library) warn(msg string, err error) {
	if l.logger != nil {
		l.logger.Warn(msg, "error", err)
	}
}

// MergeAll merges a batch of imported books by derived identity key. Existing
// records under the same key are fully overwritten (the import is
// authoritative, including over manual rating edits); new keys are inserted.
func (l *Library) MergeAll(books []domain.ImportedBook) (MergeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	updated := 0
	for _, b := range books {
		rec := domain.NewBookRecord(b, now)
		if _, exists := l.records[rec.Key]; exists {
			updated++
		} else {
			l.order = append(l.order, rec.Key)
		}
		l.records[rec.Key] = rec
		l.indexLocked(rec)
	}

	if err := l.persistBooksLocked(); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Total: len(l.records), Updated: updated}, nil
}

// UpsertOne inserts or fully replaces a single record, with the same
// replace-on-identity-match semantics as MergeAll. Used by the manual-add
// and rating-edit flows.
func (l *Library) UpsertOne(book domain.ImportedBook) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := domain.NewBookRecord(book, time.Now())
	if _, exists := l.records[rec.Key]; !exists {
		l.order = append(l.order, rec.Key)
	}
	l.records[rec.Key] = rec
	l.indexLocked(rec)

	return l.persistBooksLocked()
}

// Get returns the record stored under the given identity key.
func (l *Library) Get(key string) (domain.BookRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	return rec, ok
}

// GetAll returns a snapshot of all records in persisted order.
func (l *Library) GetAll() []domain.BookRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshotLocked()
}

// GetRated returns the subset of records with rating >= 1, the corpus fed to
// the recommender. Unrated records are invisible regardless of shelf.
func (l *Library) GetRated() []domain.BookRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var rated []domain.BookRecord
	for _, key := range l.order {
		if rec := l.records[key]; rec.Rated() {
			rated = append(rated, rec)
		}
	}
	return rated
}

// Count returns the number of stored records.
func (l *Library) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.records)
}

// Reset wipes all records and the shown set.
func (l *Library) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make(map[string]domain.BookRecord)
	l.order = nil
	l.shown = nil
	l.shownSet = make(map[string]struct{})

	if err := l.indexer.Clear(); err != nil {
		l.warn("failed to clear search index", err)
	}

	if err := l.blobs.Delete(BlobBooks); err != nil {
		return fmt.Errorf("delete book records: %w", err)
	}
	if err := l.blobs.Delete(BlobShown); err != nil {
		return fmt.Errorf("delete shown set: %w", err)
	}
	return nil
}

// Shown returns the IDs of previously surfaced recommendations.
func (l *Library) Shown() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.shown)
}

// AddShown unions the given IDs into the shown set, deduplicated.
func (l *Library) AddShown(ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for _, id := range ids {
		if _, dup := l.shownSet[id]; dup {
			continue
		}
		l.shown = append(l.shown, id)
		l.shownSet[id] = struct{}{}
		changed = true
	}
	if !changed {
		return nil
	}
	return l.persistShownLocked()
}

// ClearShown empties the shown set.
func (l *Library) ClearShown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.shown = nil
	l.shownSet = make(map[string]struct{})
	return l.blobs.Delete(BlobShown)
}

func (l *Library) snapshotLocked() []domain.BookRecord {
	recs := make([]domain.BookRecord, 0, len(l.order))
	for _, key := range l.order {
		recs = append(recs, l.records[key])
	}
	return recs
}

func (l *Library) indexLocked(rec domain.BookRecord) {
	if err := l.indexer.IndexRecord(&rec); err != nil {
		l.warn("failed to index record", err)
	}
}

func (l *Library) persistBooksLocked() error {
	data, err := json.Marshal(l.snapshotLocked())
	if err != nil {
		return fmt.Errorf("marshal book records: %w", err)
	}
	if err := l.blobs.Set(BlobBooks, data); err != nil {
		return fmt.Errorf("persist book records: %w", err)
	}
	return nil
}

func (l *Library) persistShownLocked() error {
	data, err := json.Marshal(l.shown)
	if err != nil {
		return fmt.Errorf("marshal shown set: %w", err)
	}
	if err := l.blobs.Set(BlobShown, data); err != nil {
		return fmt.Errorf("persist shown set: %w", err)
	}
	return nil
}
