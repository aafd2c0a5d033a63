package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/store"
)

func record(title, author, review string) domain.BookRecord {
	return domain.BookRecord{
		Key:         domain.IdentityKey(title, author),
		Title:       title,
		Author:      author,
		Review:      review,
		Rating:      4,
		Shelf:       domain.ShelfRead,
		Source:      domain.SourceGoodreads,
		LastUpdated: time.Now(),
	}
}

func newIndex(t *testing.T) *LibraryIndex {
	t.Helper()
	idx, err := NewLibraryIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSearch_TitleAndAuthor(t *testing.T) {
	idx := newIndex(t)

	rec := record("Dune", "Frank Herbert", "")
	require.NoError(t, idx.IndexRecord(&rec))
	rec2 := record("Piranesi", "Susanna Clarke", "")
	require.NoError(t, idx.IndexRecord(&rec2))

	hits, err := idx.Search(context.Background(), "dune", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "dune::frank herbert", hits[0].Key)
	assert.Equal(t, "Dune", hits[0].Title)
	assert.Equal(t, "Frank Herbert", hits[0].Author)

	hits, err = idx.Search(context.Background(), "clarke", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Piranesi", hits[0].Title)
}

func TestSearch_ReviewText(t *testing.T) {
	idx := newIndex(t)

	rec := record("Annihilation", "Jeff VanderMeer", "unsettling biology in the zone")
	require.NoError(t, idx.IndexRecord(&rec))

	hits, err := idx.Search(context.Background(), "unsettling", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Annihilation", hits[0].Title)
}

func TestIndexRecord_ReplacesOnSameKey(t *testing.T) {
	idx := newIndex(t)

	rec := record("Dune", "Frank Herbert", "first pass")
	require.NoError(t, idx.IndexRecord(&rec))
	rec.Review = "second pass"
	require.NoError(t, idx.IndexRecord(&rec))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestRebuildAndClear(t *testing.T) {
	idx := newIndex(t)

	require.NoError(t, idx.Rebuild([]domain.BookRecord{
		record("Dune", "Frank Herbert", ""),
		record("Hyperion", "Dan Simmons", ""),
	}))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, idx.Clear())
	count, err = idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestLibraryIndex_WiredToStore(t *testing.T) {
	idx := newIndex(t)

	lib := store.NewLibrary(store.NewMemoryBlobs(), nil)
	_, err := lib.MergeAll([]domain.ImportedBook{
		{Title: "Dune", Author: "Frank Herbert", Rating: 5, Shelf: domain.ShelfRead, Source: domain.SourceGoodreads},
	})
	require.NoError(t, err)

	// Attaching the indexer rebuilds it from the already-loaded records.
	lib.SetSearchIndexer(idx)
	hits, err := idx.Search(context.Background(), "herbert", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// New writes flow through, resets clear the index.
	require.NoError(t, lib.UpsertOne(domain.ImportedBook{Title: "Hyperion", Author: "Dan Simmons", Rating: 5, Shelf: domain.ShelfRead, Source: domain.SourceManual}))
	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, lib.Reset())
	count, err = idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
