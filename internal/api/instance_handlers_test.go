package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInstance(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/instance")
	assert.Equal(t, http.StatusOK, resp.Code)

	instance := decodeData[InstanceResponse](t, resp.Body.Bytes())
	assert.Equal(t, "srv-test", instance.ID)
	assert.Equal(t, "Test Server", instance.Name)
	assert.Equal(t, "1.0.0", instance.Version)
	assert.False(t, instance.CreatedAt.IsZero())
}
