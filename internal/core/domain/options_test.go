package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIngestOptions(t *testing.T) {
	opts := DefaultIngestOptions()

	assert.Equal(t, "rag_data", opts.Collection)
	assert.Equal(t, 500, opts.ChunkSize)
	assert.Equal(t, 50, opts.Overlap)
	assert.Equal(t, 100, opts.BatchSize)
	assert.Equal(t, DistanceCosine, opts.Distance)
	assert.Equal(t, IDModeDeterministic, opts.IDMode)
	assert.True(t, opts.BuildIndex)
	assert.False(t, opts.GenerateSummaries)
	assert.False(t, opts.QualityChecks)
}

func TestIngestOptions_Validate(t *testing.T) {
	valid := DefaultIngestOptions()
	valid.Source = "doc.txt"

	tests := []struct {
		name    string
		mutate  func(*IngestOptions)
		wantErr bool
	}{
		{"valid", func(*IngestOptions) {}, false},
		{"missing source", func(o *IngestOptions) { o.Source = "" }, true},
		{"missing collection", func(o *IngestOptions) { o.Collection = "" }, true},
		{"zero chunk size", func(o *IngestOptions) { o.ChunkSize = 0 }, true},
		{"negative chunk size", func(o *IngestOptions) { o.ChunkSize = -1 }, true},
		{"negative overlap", func(o *IngestOptions) { o.Overlap = -1 }, true},
		{"overlap not below chunk size", func(o *IngestOptions) { o.Overlap = o.ChunkSize }, true},
		{"zero overlap", func(o *IngestOptions) { o.Overlap = 0 }, false},
		{"zero batch size", func(o *IngestOptions) { o.BatchSize = 0 }, true},
		{"bad distance", func(o *IngestOptions) { o.Distance = "Manhattan" }, true},
		{"bad id mode", func(o *IngestOptions) { o.IDMode = "sequential" }, true},
		{"negative crawl depth", func(o *IngestOptions) { o.CrawlDepth = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIngestOptions_LexicalIndexPath(t *testing.T) {
	opts := IngestOptions{Collection: "docs"}
	assert.Equal(t, "docs_bm25_index.json", opts.LexicalIndexPath())

	opts.IndexPath = "/tmp/custom.json"
	assert.Equal(t, "/tmp/custom.json", opts.LexicalIndexPath())
}
