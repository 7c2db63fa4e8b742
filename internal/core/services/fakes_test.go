package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/segmenter"
)

// --- Mock implementations for pipeline testing ---

// fakeFetcher serves content from a map keyed by source reference.
type fakeFetcher struct {
	mu      sync.Mutex
	content map[string]string
	fetched []string

	// delay holds each fetch open so overlapping fetches can be counted.
	delay    time.Duration
	inFlight int
	peak     int
}

func newFakeFetcher(content map[string]string) *fakeFetcher {
	return &fakeFetcher{content: content}
}

func (f *fakeFetcher) Name() string                 { return "fake" }
func (f *fakeFetcher) Accepts(_ domain.Source) bool { return true }

func (f *fakeFetcher) Fetch(_ context.Context, src domain.Source) (*domain.RawDocument, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, src.Ref)
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	body, ok := f.content[src.Ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such file", domain.ErrSourceUnreadable, src.Ref)
	}
	return &domain.RawDocument{
		Source:   src,
		URI:      src.Ref,
		MIMEType: domain.MIMETypePlain,
		Content:  []byte(body),
	}, nil
}

// fakeItem is a plain text item.
type fakeItem struct {
	text   string
	fields map[string]any
}

func (i fakeItem) Text() (string, bool)   { return i.text, strings.TrimSpace(i.text) != "" }
func (i fakeItem) Fields() map[string]any { return i.fields }

// fakeTable is a table item whose markdown rendering may fail.
type fakeTable struct {
	fakeItem
	markdown string
	err      error
}

func (t fakeTable) Markdown() (string, error) { return t.markdown, t.err }

// fakeExtractor is a configurable loader tier.
type fakeExtractor struct {
	name     string
	priority int
	policy   driven.SegmentPolicy
	accepts  func(domain.Source) bool
	items    func(raw *domain.RawDocument) []driven.Item
	err      error
	calls    int
}

func (e *fakeExtractor) Name() string                 { return e.name }
func (e *fakeExtractor) Priority() int                { return e.priority }
func (e *fakeExtractor) Policy() driven.SegmentPolicy { return e.policy }

func (e *fakeExtractor) Accepts(src domain.Source, _ *domain.RawDocument) bool {
	return e.accepts == nil || e.accepts(src)
}

func (e *fakeExtractor) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.items == nil {
		return nil, nil
	}
	return e.items(raw), nil
}

// wholeText returns one item holding the document body with {source}.
func wholeText(raw *domain.RawDocument) []driven.Item {
	return []driven.Item{fakeItem{
		text:   string(raw.Content),
		fields: map[string]any{domain.MetaSource: raw.Source.Ref},
	}}
}

// paragraphFactory builds the paragraph segmenter for every policy so tests
// never need a tokeniser.
type paragraphFactory struct{}

func (paragraphFactory) Segmenter(_ driven.SegmentPolicy, chunkSize, overlap int) (driven.Segmenter, error) {
	return segmenter.NewParagraph(segmenter.Config{MaxChars: chunkSize, Overlap: overlap})
}

// fakeLister returns a fixed file list for any directory.
type fakeLister struct {
	files []string
	err   error
}

func (l fakeLister) List(_ context.Context, _ domain.Source) ([]domain.Source, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := make([]domain.Source, len(l.files))
	for i, f := range l.files {
		out[i] = domain.Source{Ref: f, Kind: domain.SourceKindFile}
	}
	return out, nil
}

// fakeCrawler returns a fixed page list.
type fakeCrawler struct {
	pages []string
	depth int
}

func (c *fakeCrawler) Crawl(_ context.Context, _ string, depth int) ([]string, error) {
	c.depth = depth
	return c.pages, nil
}

// fakeEmbedder returns vectors derived from text length.
type fakeEmbedder struct {
	dim      int
	vecDim   int // vector size actually returned; defaults to dim
	failOn   int // 1-based batch number that fails; 0 never fails
	short    bool
	batches  int
	batchLen []int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batches++
	e.batchLen = append(e.batchLen, len(texts))
	if e.failOn == e.batches {
		return nil, errors.New("rate limited")
	}

	size := e.vecDim
	if size == 0 {
		size = e.dim
	}
	n := len(texts)
	if e.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, size)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int              { return e.dim }
func (e *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

// failingStore wraps a vector store and fails selected calls.
type failingStore struct {
	driven.VectorStore
	failUpsertOn int // 1-based upsert call number
	upserts      int
	scrollErr    error
	ensures      int
}

func (s *failingStore) EnsureCollection(ctx context.Context, name string, size int, d domain.Distance) error {
	s.ensures++
	return s.VectorStore.EnsureCollection(ctx, name, size, d)
}

func (s *failingStore) Upsert(ctx context.Context, coll string, points []domain.StoredPoint) error {
	s.upserts++
	if s.upserts == s.failUpsertOn {
		return errors.New("connection reset")
	}
	return s.VectorStore.Upsert(ctx, coll, points)
}

func (s *failingStore) Scroll(
	ctx context.Context, coll string, limit int, cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	if s.scrollErr != nil {
		return nil, "", s.scrollErr
	}
	return s.VectorStore.Scroll(ctx, coll, limit, cursor)
}

// failingWriter always fails.
type failingWriter struct{}

func (failingWriter) Write(_ context.Context, _ string, _ map[string]string) error {
	return errors.New("disk full")
}

// makePassages builds n passages with distinct content and a source key.
func makePassages(n int) []domain.Passage {
	out := make([]domain.Passage, n)
	for i := range out {
		out[i] = domain.Passage{
			Content:  fmt.Sprintf("passage number %d", i),
			Metadata: map[string]any{domain.MetaSource: "doc.txt", domain.MetaChunkIndex: i},
		}
	}
	return out
}
