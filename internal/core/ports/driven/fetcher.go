package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Fetcher retrieves the raw bytes of a source.
type Fetcher interface {
	// Name identifies the fetcher in logs.
	Name() string

	// Accepts reports whether this fetcher handles the source kind.
	Accepts(src domain.Source) bool

	// Fetch reads the source. A failure here means no tier can read it.
	Fetch(ctx context.Context, src domain.Source) (*domain.RawDocument, error)
}

// Crawler discovers pages reachable from a URL source.
// Implemented by HTTP fetchers that support link following.
type Crawler interface {
	// Crawl returns root plus same-host pages up to depth link hops,
	// in breadth-first order without duplicates.
	Crawl(ctx context.Context, root string, depth int) ([]string, error)
}

// Lister expands a directory source into file sources.
type Lister interface {
	// List returns the files under the directory in lexical order.
	List(ctx context.Context, dir domain.Source) ([]domain.Source, error)
}
