package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestPointID_Deterministic(t *testing.T) {
	meta := map[string]any{"source": "a.txt", "chunk_index": 3, "nested": map[string]any{"b": 1, "a": 2}}

	id1, err := PointID(meta, "content", domain.IDModeDeterministic)
	require.NoError(t, err)
	id2, err := PointID(map[string]any{
		"nested":      map[string]any{"a": 2, "b": 1},
		"chunk_index": 3,
		"source":      "a.txt",
	}, "content", domain.IDModeDeterministic)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "key order does not matter")

	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestPointID_MatchesNamespaceDerivation(t *testing.T) {
	id, err := PointID(map[string]any{"source": "x"}, "hello", domain.IDModeDeterministic)
	require.NoError(t, err)

	want := uuid.NewSHA1(uuid.NameSpaceURL, []byte(`{"source":"x"}`+"\nhello")).String()
	assert.Equal(t, want, id)
}

func TestPointID_Distinguishes(t *testing.T) {
	base, err := PointID(map[string]any{"source": "a"}, "text", domain.IDModeDeterministic)
	require.NoError(t, err)

	tests := []struct {
		name    string
		meta    map[string]any
		content string
	}{
		{"different content", map[string]any{"source": "a"}, "text2"},
		{"different metadata", map[string]any{"source": "b"}, "text"},
		{"extra key", map[string]any{"source": "a", "is_summary": true}, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := PointID(tt.meta, tt.content, domain.IDModeDeterministic)
			require.NoError(t, err)
			assert.NotEqual(t, base, id)
		})
	}
}

func TestPointID_Random(t *testing.T) {
	id1, err := PointID(map[string]any{"source": "a"}, "text", domain.IDModeRandom)
	require.NoError(t, err)
	id2, err := PointID(map[string]any{"source": "a"}, "text", domain.IDModeRandom)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestPointID_Errors(t *testing.T) {
	_, err := PointID(nil, "x", domain.IDMode("sequential"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = PointID(map[string]any{"bad": make(chan int)}, "x", domain.IDModeDeterministic)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	nilID, err := PointID(nil, "x", domain.IDModeDeterministic)
	require.NoError(t, err)
	emptyID, err := PointID(map[string]any{}, "x", domain.IDModeDeterministic)
	require.NoError(t, err)
	assert.Equal(t, nilID, emptyID)
}
