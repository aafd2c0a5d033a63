package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	domainerrors "github.com/bookwormapp/bookworm-server/internal/errors"
	"github.com/bookwormapp/bookworm-server/internal/recommend"
)

func TestRecommend_UsesRatedLibrary(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)
	ts.recommender.result = &recommend.Result{
		Recommendations: []domain.Recommendation{
			{Title: "Piranesi", Author: "Susanna Clarke", GoogleBooksID: "vol-9"},
		},
		PreferenceSummary: "Epic science fiction",
	}

	resp := ts.api.Post("/api/v1/recommend", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decodeData[RecommendResponse](t, resp.Body.Bytes())
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "Piranesi", result.Recommendations[0].Title)
	assert.Equal(t, "Epic science fiction", result.PreferenceSummary)

	// Only rated records feed the pipeline: the to-read entry is dropped.
	require.Len(t, ts.recommender.lastReq.Books, 2)
	assert.Equal(t, "Dune", ts.recommender.lastReq.Books[0].Title)
}

func TestRecommend_RequestBooksOverrideLibrary(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)

	resp := ts.api.Post("/api/v1/recommend", map[string]any{
		"read_books": []map[string]any{
			{"title": "Solaris", "author": "Stanislaw Lem", "rating": 5},
			{"title": "Roadside Picnic", "author": "Arkady Strugatsky", "rating": 4},
			{"title": "Blindsight", "author": "Peter Watts", "rating": 5},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.Len(t, ts.recommender.lastReq.Books, 3)
	assert.Equal(t, "Solaris", ts.recommender.lastReq.Books[0].Title)
}

func TestRecommend_ShownSetExcluded(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)
	require.NoError(t, ts.library.AddShown([]string{"vol-seen"}))

	resp := ts.api.Post("/api/v1/recommend", map[string]any{
		"exclude_book_ids": []string{"vol-manual"},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	assert.ElementsMatch(t, []string{"vol-manual", "vol-seen"}, ts.recommender.lastReq.ExcludeIDs)
}

func TestRecommend_RecordsResultsAsShown(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)
	ts.recommender.result = &recommend.Result{
		Recommendations: []domain.Recommendation{
			{Title: "Piranesi", GoogleBooksID: "vol-9"},
			{Title: "Solaris", GoogleBooksID: "llm-abc"},
		},
	}

	resp := ts.api.Post("/api/v1/recommend", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	shown := decodeData[ShownResponse](t, ts.api.Get("/api/v1/library/shown").Body.Bytes())
	assert.Equal(t, []string{"vol-9", "llm-abc"}, shown.IDs)
}

func TestRecommend_GenreMoodAndCountForwarded(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)

	resp := ts.api.Post("/api/v1/recommend", map[string]any{
		"genre_mood": "cozy fantasy",
		"count":      3,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, "cozy fantasy", ts.recommender.lastReq.GenreMood)
	assert.Equal(t, 3, ts.recommender.lastReq.Count)
}

func TestRecommend_TooFewRatedBooks(t *testing.T) {
	ts := setupTestServer(t)
	ts.recommender.err = domainerrors.EmptyInput(
		"Need at least 3 rated books to generate recommendations. Add more ratings in My Library & Ratings.")

	resp := ts.api.Post("/api/v1/recommend", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	envelope := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "EMPTY_INPUT", envelope.Code)
	assert.Contains(t, envelope.Message, "at least 3 rated books")
}

func TestRecommend_ModelFailure(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)
	ts.recommender.err = domainerrors.Upstream("OpenAI returned status 500")

	resp := ts.api.Post("/api/v1/recommend", map[string]any{})
	assert.Equal(t, http.StatusBadGateway, resp.Code)

	envelope := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "UPSTREAM", envelope.Code)
}

func TestRecommend_RateLimited(t *testing.T) {
	ts := setupTestServer(t)
	importSample(t, ts)

	// The per-client bucket holds 3 tokens.
	for range 3 {
		resp := ts.api.Post("/api/v1/recommend", map[string]any{})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Post("/api/v1/recommend", map[string]any{})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "too many recommendation requests")
}

func TestRecommend_NoProviderConfigured(t *testing.T) {
	ts := setupTestServer(t)
	ts.Server.recommender = nil

	resp := ts.api.Post("/api/v1/recommend", map[string]any{})
	assert.Equal(t, http.StatusBadGateway, resp.Code)

	envelope := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "UPSTREAM", envelope.Code)
	assert.Contains(t, envelope.Message, "no model provider")
}
