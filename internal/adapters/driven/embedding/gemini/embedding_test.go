package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestCollect(t *testing.T) {
	vectors, err := collect([]*genai.ContentEmbedding{{Values: []float32{1}}, {Values: []float32{2}}}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vectors)

	_, err = collect([]*genai.ContentEmbedding{{Values: []float32{1}}}, 2)
	assert.Error(t, err)

	_, err = collect([]*genai.ContentEmbedding{nil}, 1)
	assert.Error(t, err)
}
