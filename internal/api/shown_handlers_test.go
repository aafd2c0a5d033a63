package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShownSet_AddListClear(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/library/shown", map[string]any{
		"ids": []string{"vol-1", "vol-2"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	shown := decodeData[ShownResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"vol-1", "vol-2"}, shown.IDs)

	// Re-adding an ID is a no-op union, order preserved.
	resp = ts.api.Post("/api/v1/library/shown", map[string]any{
		"ids": []string{"vol-2", "vol-3"},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	shown = decodeData[ShownResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"vol-1", "vol-2", "vol-3"}, shown.IDs)

	shown = decodeData[ShownResponse](t, ts.api.Get("/api/v1/library/shown").Body.Bytes())
	assert.Equal(t, 3, shown.Count)

	resp = ts.api.Delete("/api/v1/library/shown")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	shown = decodeData[ShownResponse](t, ts.api.Get("/api/v1/library/shown").Body.Bytes())
	assert.Equal(t, 0, shown.Count)
}

func TestAddShown_RequiresIDs(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/library/shown", map[string]any{
		"ids": []string{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
