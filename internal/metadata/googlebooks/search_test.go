package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

const volumesFixture = `{
	"totalItems": 3,
	"items": [
		{
			"id": "gb-dune",
			"volumeInfo": {
				"title": "Dune",
				"authors": ["Frank Herbert"],
				"description": "Desert planet politics.",
				"publishedDate": "1965-08-01",
				"categories": ["Fiction", "Science Fiction"],
				"imageLinks": {"thumbnail": "http://books.google.com/dune.jpg"},
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "0441172717"},
					{"type": "ISBN_13", "identifier": "9780441172719"}
				]
			}
		},
		{
			"id": "gb-anon",
			"volumeInfo": {
				"title": "Collected Folk Tales",
				"imageLinks": {"smallThumbnail": "http://books.google.com/folk-small.jpg"}
			}
		},
		{
			"id": "gb-untitled",
			"volumeInfo": {"authors": ["Nobody"]}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("", nil, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSearch_NormalizesVolumes(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "8", r.URL.Query().Get("maxResults"))
		w.Write([]byte(volumesFixture))
	})

	books, err := client.Search(context.Background(), "dune")
	require.NoError(t, err)
	assert.Equal(t, "dune", gotQuery)

	// The volume without a title is dropped.
	require.Len(t, books, 2)

	dune := books[0]
	assert.Equal(t, "gb-dune", dune.ID)
	assert.Equal(t, "Frank Herbert", dune.Author)
	assert.Equal(t, "https://books.google.com/dune.jpg", dune.CoverURL)
	assert.Equal(t, "1965-08-01", dune.PublishedDate)
	assert.Equal(t, "Fiction", dune.Genre)
	assert.Equal(t, "9780441172719", dune.ISBN)

	folk := books[1]
	assert.Equal(t, "Unknown", folk.Author)
	assert.Equal(t, "https://books.google.com/folk-small.jpg", folk.CoverURL)
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalItems": 0}`))
	})

	books, err := client.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSearch_UpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "dune")
	assert.ErrorIs(t, err, errors.ErrUpstream)
}

func TestFetchCandidates_DeduplicatesAcrossQueries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("maxResults"))
		w.Write([]byte(`{
			"totalItems": 1,
			"items": [{"id": "gb-dune", "volumeInfo": {"title": "Dune", "authors": ["Frank Herbert"]}}]
		}`))
	})

	books := client.FetchCandidates(context.Background(), []string{"dune", "frank herbert"}, nil, 50)
	assert.Len(t, books, 1, "the same volume from two queries must collapse to one candidate")
}

func TestFetchCandidates_ExcludesAlreadyReadTitles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"totalItems": 2,
			"items": [
				{"id": "gb-dune", "volumeInfo": {"title": "Dune", "authors": ["Frank Herbert"]}},
				{"id": "gb-messiah", "volumeInfo": {"title": "Dune Messiah", "authors": ["Frank Herbert"]}}
			]
		}`))
	})

	exclude := map[string]struct{}{"dune": {}}
	books := client.FetchCandidates(context.Background(), []string{"herbert"}, exclude, 50)
	require.Len(t, books, 1)
	assert.Equal(t, "gb-messiah", books[0].ID)
}

func TestFetchCandidates_StopsAtTargetCount(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{
			"totalItems": 2,
			"items": [
				{"id": "gb-a", "volumeInfo": {"title": "A"}},
				{"id": "gb-b", "volumeInfo": {"title": "B"}}
			]
		}`))
	})

	books := client.FetchCandidates(context.Background(), []string{"q1", "q2", "q3"}, nil, 2)
	assert.Len(t, books, 2)
	assert.Equal(t, 1, calls, "target reached after the first query, the rest are skipped")
}

func TestFetchCandidates_SkipsFailingQueries(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{
			"totalItems": 1,
			"items": [{"id": "gb-piranesi", "volumeInfo": {"title": "Piranesi", "authors": ["Susanna Clarke"]}}]
		}`))
	})

	books := client.FetchCandidates(context.Background(), []string{"bad", "good"}, nil, 50)
	require.Len(t, books, 1)
	assert.Equal(t, "gb-piranesi", books[0].ID)
}
