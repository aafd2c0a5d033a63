package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\": 1}", `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n[1, 2]\n```", `[1, 2]`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in), "input %q", tt.in)
	}
}

func TestParseResilient_ValidJSON(t *testing.T) {
	var out map[string]any
	err := parseResilient(`{"summary": "reads a lot"}`, "test", &out, nil)
	require.NoError(t, err)
	assert.Equal(t, "reads a lot", out["summary"])
}

func TestParseResilient_FencedJSON(t *testing.T) {
	var out []map[string]any
	err := parseResilient("```json\n[{\"title\": \"Dune\"}]\n```", "test", &out, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestParseResilient_TruncatedArraySalvagesCompleteObjects(t *testing.T) {
	// Token limit hit mid-third-object: the first two survive.
	raw := `[
		{"title": "Dune", "reason": "sand"},
		{"title": "Hyperion", "reason": "shrike"},
		{"title": "Blindsi`

	var out []map[string]any
	err := parseResilient(raw, "test", &out, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Dune", out[0]["title"])
	assert.Equal(t, "Hyperion", out[1]["title"])
}

func TestParseResilient_TruncatedObjectClosesAtLastCompletePair(t *testing.T) {
	raw := `{
		"summary": "complete",
		"genres": ["sf"],
		"themes": ["eco`

	var out map[string]any
	err := parseResilient(raw, "test", &out, nil)
	require.NoError(t, err)
	assert.Equal(t, "complete", out["summary"])
	assert.NotContains(t, out, "themes")
}

func TestParseResilient_Unrecoverable(t *testing.T) {
	var out []map[string]any
	err := parseResilient("I cannot help with that request.", "test", &out, nil)
	require.ErrorIs(t, err, errors.ErrUpstream)
	assert.Contains(t, err.Error(), "cut off")
}
