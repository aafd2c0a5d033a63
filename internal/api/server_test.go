package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/bookwormapp/bookworm-server/internal/config"
	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/metadata/googlebooks"
	"github.com/bookwormapp/bookworm-server/internal/recommend"
	"github.com/bookwormapp/bookworm-server/internal/search"
	"github.com/bookwormapp/bookworm-server/internal/store"
)

// testEnvelope mirrors the wire envelope for decoding success responses.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope mirrors the wire envelope for detailed errors.
type testErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// fakeRecommender returns canned pipeline results and records the request.
type fakeRecommender struct {
	result  *recommend.Result
	err     error
	lastReq recommend.Request
	calls   int
}

func (f *fakeRecommender) Generate(_ context.Context, req recommend.Request) (*recommend.Result, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeBookSearcher returns canned search results.
type fakeBookSearcher struct {
	results []googlebooks.Book
	err     error
	lastQ   string
}

func (f *fakeBookSearcher) Search(_ context.Context, query string) ([]googlebooks.Book, error) {
	f.lastQ = query
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api         humatest.TestAPI
	recommender *fakeRecommender
	books       *fakeBookSearcher
}

// setupTestServer creates a fully wired server on in-memory storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	library := store.NewLibrary(store.NewMemoryBlobs(), logger)

	index, err := search.NewLibraryIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	library.SetSearchIndexer(index)

	instance := &domain.Instance{
		ID:        "srv-test",
		Name:      "Test Server",
		Version:   "1.0.0",
		CreatedAt: time.Now(),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name:        "Test Server",
			CORSOrigins: []string{"http://localhost:5173"},
		},
	}

	recommender := &fakeRecommender{result: &recommend.Result{}}
	books := &fakeBookSearcher{}

	s := NewServer(library, index, books, recommender, instance, cfg, logger)

	return &testServer{
		Server:      s,
		api:         humatest.Wrap(t, s.api),
		recommender: recommender,
		books:       books,
	}
}

// decodeData unmarshals the data portion of a success envelope.
func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success, "expected success envelope, got: %s", body)
	return envelope.Data
}

// decodeError unmarshals a detailed error envelope.
func decodeError(t *testing.T, body []byte) testErrorEnvelope {
	t.Helper()
	var envelope testErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.False(t, envelope.Success, "expected error envelope, got: %s", body)
	return envelope
}
