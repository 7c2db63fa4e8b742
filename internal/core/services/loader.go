package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// errNoPassages marks a tier that ran without error but produced nothing.
var errNoPassages = errors.New("no non-empty passages")

// LoaderChain turns a source into passages by trying extractor tiers in
// priority order until one produces text.
type LoaderChain struct {
	fetchers    []driven.Fetcher
	extractors  []driven.Extractor
	segmenters  driven.SegmenterFactory
	listers     map[domain.SourceKind]driven.Lister
	crawler     driven.Crawler
	concurrency int
}

// LoadParams controls segmentation and fan-out for one load.
type LoadParams struct {
	ChunkSize int
	Overlap   int

	// Concurrency bounds how many expanded sources load at once. Zero
	// keeps the chain's default.
	Concurrency int
}

// LoaderOption configures a LoaderChain.
type LoaderOption func(*LoaderChain)

// WithLister enables directory sources.
func WithLister(l driven.Lister) LoaderOption {
	return WithListerFor(domain.SourceKindDirectory, l)
}

// WithListerFor expands sources of kind into their members with l.
func WithListerFor(kind domain.SourceKind, l driven.Lister) LoaderOption {
	return func(c *LoaderChain) {
		c.listers[kind] = l
	}
}

// WithCrawler enables link following for URL sources.
func WithCrawler(cr driven.Crawler) LoaderOption {
	return func(c *LoaderChain) {
		c.crawler = cr
	}
}

// WithConcurrency sets the default bound on how many files of a directory
// load at once.
func WithConcurrency(n int) LoaderOption {
	return func(c *LoaderChain) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewLoaderChain creates a loader chain. Extractors are ordered by
// descending priority; ties keep the order given.
func NewLoaderChain(
	fetchers []driven.Fetcher,
	extractors []driven.Extractor,
	segmenters driven.SegmenterFactory,
	opts ...LoaderOption,
) *LoaderChain {
	sorted := make([]driven.Extractor, len(extractors))
	copy(sorted, extractors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})

	c := &LoaderChain{
		fetchers:    fetchers,
		extractors:  sorted,
		segmenters:  segmenters,
		listers:     make(map[domain.SourceKind]driven.Lister),
		concurrency: domain.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tiers returns the extractor names in the order they are tried.
func (c *LoaderChain) Tiers() []string {
	names := make([]string, len(c.extractors))
	for i, e := range c.extractors {
		names[i] = e.Name()
	}
	return names
}

// Load reads a source into passages. Directory and repository sources are
// expanded into their files. Recovered tier failures are returned as warnings.
func (c *LoaderChain) Load(
	ctx context.Context,
	src domain.Source,
	p LoadParams,
) ([]domain.Passage, []domain.Warning, error) {
	if lister, ok := c.listers[src.Kind]; ok {
		files, err := lister.List(ctx, src)
		if err != nil {
			return nil, nil, fmt.Errorf("list %s: %w", src.Ref, err)
		}
		logger.Debug("Expanded %s into %d files", src.Ref, len(files))
		return c.loadMany(ctx, src, files, p)
	}
	if src.Kind == domain.SourceKindDirectory || src.Kind == domain.SourceKindGitHub {
		return nil, nil, fmt.Errorf("%w: %s sources are not supported", domain.ErrUnsupportedType, src.Kind)
	}
	return c.loadOne(ctx, src, p.ChunkSize, p.Overlap)
}

// Crawl loads a URL source plus the same-host pages reachable within depth
// link hops. Each page is loaded as its own source. Without a crawler, or
// with depth 0, it behaves like Load.
func (c *LoaderChain) Crawl(
	ctx context.Context,
	src domain.Source,
	depth int,
	p LoadParams,
) ([]domain.Passage, []domain.Warning, error) {
	if !src.IsURL() || depth <= 0 || c.crawler == nil {
		return c.Load(ctx, src, p)
	}

	urls, err := c.crawler.Crawl(ctx, src.Ref, depth)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: crawl %s: %w", domain.ErrSourceUnreadable, src.Ref, err)
	}
	logger.Debug("Crawl of %s found %d pages", src.Ref, len(urls))

	pages := make([]domain.Source, len(urls))
	for i, u := range urls {
		pages[i] = domain.Source{Ref: u, Kind: domain.SourceKindURL}
	}
	return c.loadMany(ctx, src, pages, p)
}

type loadResult struct {
	passages []domain.Passage
	warnings []domain.Warning
	failed   bool
}

// loadMany loads sources concurrently and merges the results in input order.
// A source that no tier can read becomes a warning; the run fails only when
// none of them can be read.
func (c *LoaderChain) loadMany(
	ctx context.Context,
	parent domain.Source,
	sources []domain.Source,
	p LoadParams,
) ([]domain.Passage, []domain.Warning, error) {
	if len(sources) == 0 {
		return nil, nil, nil
	}

	limit := c.concurrency
	if p.Concurrency > 0 {
		limit = p.Concurrency
	}

	results := make([]loadResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			passages, warnings, err := c.loadOne(gctx, src, p.ChunkSize, p.Overlap)
			if err != nil {
				if !errors.Is(err, domain.ErrSourceUnreadable) {
					return err
				}
				warnings = append(warnings,
					domain.NewWarning(domain.WarningExtraction, src.Ref, "loader", err))
				results[i] = loadResult{warnings: warnings, failed: true}
				return nil
			}
			results[i] = loadResult{passages: passages, warnings: warnings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		passages []domain.Passage
		warnings []domain.Warning
		failed   int
	)
	for _, r := range results {
		passages = append(passages, r.passages...)
		warnings = append(warnings, r.warnings...)
		if r.failed {
			failed++
		}
	}
	if failed == len(sources) {
		return nil, warnings, fmt.Errorf("%w: none of the %d files under %s could be read",
			domain.ErrSourceUnreadable, len(sources), parent.Ref)
	}
	return passages, warnings, nil
}

// loadOne fetches a single source and runs it through the accepting tiers.
func (c *LoaderChain) loadOne(
	ctx context.Context,
	src domain.Source,
	chunkSize, overlap int,
) ([]domain.Passage, []domain.Warning, error) {
	fetcher := c.fetcherFor(src)
	if fetcher == nil {
		return nil, nil, fmt.Errorf("%w: no fetcher for %s source %s",
			domain.ErrSourceUnreadable, src.Kind, src.Ref)
	}

	raw, err := fetcher.Fetch(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		if !errors.Is(err, domain.ErrSourceUnreadable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
		}
		return nil, nil, err
	}

	var (
		warnings []domain.Warning
		tried    int
	)
	for _, tier := range c.extractors {
		if !tier.Accepts(src, raw) {
			continue
		}
		tried++

		passages, err := c.runTier(ctx, tier, raw, chunkSize, overlap)
		if err == nil && len(passages) == 0 {
			err = errNoPassages
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, warnings, ctx.Err()
			}
			logger.Debug("Tier %s failed for %s: %v", tier.Name(), src.Ref, err)
			warnings = append(warnings, domain.NewWarning(domain.WarningExtraction, src.Ref, tier.Name(), err))
			continue
		}

		logger.Debug("Tier %s loaded %d passages from %s", tier.Name(), len(passages), src.Ref)
		return passages, warnings, nil
	}

	if tried == 0 {
		return nil, warnings, fmt.Errorf("%w: no extractor accepts %s", domain.ErrSourceUnreadable, src.Ref)
	}
	return nil, warnings, fmt.Errorf("%w: %s: all %d tiers failed", domain.ErrSourceUnreadable, src.Ref, tried)
}

func (c *LoaderChain) fetcherFor(src domain.Source) driven.Fetcher {
	for _, f := range c.fetchers {
		if f.Accepts(src) {
			return f
		}
	}
	return nil
}

// runTier extracts items and turns them into passages. Table items become
// one passage each; text items are segmented with the tier's policy.
func (c *LoaderChain) runTier(
	ctx context.Context,
	tier driven.Extractor,
	raw *domain.RawDocument,
	chunkSize, overlap int,
) ([]domain.Passage, error) {
	items, err := tier.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	var (
		seg      driven.Segmenter
		passages []domain.Passage
	)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if table, ok := item.(driven.Table); ok {
			if p, ok := tablePassage(table); ok {
				passages = append(passages, p)
			}
			continue
		}

		text, ok := item.Text()
		if !ok {
			continue
		}
		if seg == nil {
			seg, err = c.segmenters.Segmenter(tier.Policy(), chunkSize, overlap)
			if err != nil {
				return nil, err
			}
		}
		pieces, err := seg.Segment(text)
		if err != nil {
			return nil, fmt.Errorf("segment: %w", err)
		}

		fields := item.Fields()
		for i, piece := range pieces {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			meta := maps.Clone(fields)
			if meta == nil {
				meta = make(map[string]any, 1)
			}
			meta[domain.MetaChunkIndex] = i
			if p, ok := domain.NewPassage(piece, meta); ok {
				passages = append(passages, p)
			}
		}
	}
	return passages, nil
}

// tablePassage renders a table as one passage, falling back to its plain
// text when the markdown rendering fails.
func tablePassage(table driven.Table) (domain.Passage, bool) {
	content, err := table.Markdown()
	if err != nil || strings.TrimSpace(content) == "" {
		text, ok := table.Text()
		if !ok {
			return domain.Passage{}, false
		}
		content = text
	}
	return domain.NewPassage(content, table.Fields())
}
