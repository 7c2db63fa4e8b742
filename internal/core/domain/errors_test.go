package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrSourceUnreadable", ErrSourceUnreadable},
		{"ErrNoDocuments", ErrNoDocuments},
		{"ErrEmbeddingBatch", ErrEmbeddingBatch},
		{"ErrUpsertBatch", ErrUpsertBatch},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrSegmenterUnavailable", ErrSegmenterUnavailable},
		{"ErrExtraction", ErrExtraction},
		{"ErrSummaryItem", ErrSummaryItem},
		{"ErrIndexWrite", ErrIndexWrite},
		{"ErrQuality", ErrQuality},
		{"ErrRunInProgress", ErrRunInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnsupportedType,
		ErrLLMUnavailable,
		ErrEmbeddingUnavailable,
		ErrConfiguration,
		ErrSourceUnreadable,
		ErrNoDocuments,
		ErrEmbeddingBatch,
		ErrUpsertBatch,
		ErrDimensionMismatch,
		ErrSegmenterUnavailable,
		ErrExtraction,
		ErrSummaryItem,
		ErrIndexWrite,
		ErrQuality,
		ErrRunInProgress,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

// TestErrors_DoubleWrap tests the sentinel-plus-cause wrapping used by the pipeline
func TestErrors_DoubleWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("%w: batch %d: %w", ErrUpsertBatch, 3, cause)

	assert.True(t, errors.Is(err, ErrUpsertBatch))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrEmbeddingBatch))
	assert.Equal(t, "upsert batch failed: batch 3: connection reset", err.Error())
}

// TestErrors_ErrorMessages tests that error messages are descriptive
func TestErrors_ErrorMessages(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		shouldHave []string
	}{
		{"ErrConfiguration message", ErrConfiguration, []string{"configuration"}},
		{"ErrSourceUnreadable message", ErrSourceUnreadable, []string{"source", "unreadable"}},
		{"ErrEmbeddingBatch message", ErrEmbeddingBatch, []string{"embedding", "batch"}},
		{"ErrUpsertBatch message", ErrUpsertBatch, []string{"upsert", "batch"}},
		{"ErrIndexWrite message", ErrIndexWrite, []string{"index", "write"}},
		{"ErrLLMUnavailable message", ErrLLMUnavailable, []string{"LLM", "unavailable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, word := range tt.shouldHave {
				assert.Contains(t, msg, word)
			}
		})
	}
}
