package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{
			name:   "success response",
			status: "200",
			input:  map[string]string{"key": "value"},
		},
		{
			name:   "no content response",
			status: "204",
			input:  nil,
		},
		{
			name:   "bad request error",
			status: "400",
			input:  errors.New("invalid input"),
		},
		{
			name: "unprocessable error with details",
			status: "422",
			input: &APIError{
				Code:    "SCHEMA_MISMATCH",
				Message: "missing columns",
				Details: []string{"Author"},
			},
		},
		{
			name:   "internal server error",
			status: "500",
			input:  errors.New("internal error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			require.Contains(t, envelope, "v", "envelope must contain version field 'v'")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"name": "Test Book"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_ErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_ErrorWithDetails(t *testing.T) {
	apiErr := &APIError{
		Code:    "VALIDATION",
		Message: "validation failed",
		Details: map[string]string{"title": "is required"},
	}

	result, err := EnvelopeTransformer(nil, "400", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "expected APIErrorEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "validation failed", envelope.Message)
	assert.Equal(t, map[string]string{"title": "is required"}, envelope.Details)
}

func TestEnvelopeTransformer_SimpleErrorUsesErrorField(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "404", &APIError{Message: "not found"})
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "codeless errors collapse to the simple envelope")
	assert.Equal(t, "not found", envelope.Error)
}
