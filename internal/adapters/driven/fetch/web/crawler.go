package web

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Crawl visits root and follows same-host links breadth-first up to depth
// hops. A page that cannot be fetched is skipped, except the root.
func (f *Fetcher) Crawl(ctx context.Context, root string, depth int) ([]string, error) {
	start, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", root, err)
	}
	start.Fragment = ""

	seen := map[string]bool{start.String(): true}
	pages := []string{start.String()}
	frontier := []string{start.String()}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, page := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			raw, err := f.get(ctx, page)
			if err != nil {
				if page == pages[0] {
					return nil, err
				}
				logger.Debug("crawl: skipping %s: %v", page, err)
				continue
			}
			if !strings.Contains(strings.ToLower(raw.MIMEType), "html") {
				continue
			}

			base, err := url.Parse(raw.URI)
			if err != nil {
				continue
			}
			for _, link := range links(raw.Content, base) {
				if seen[link] || len(pages) >= f.maxPages {
					continue
				}
				seen[link] = true
				pages = append(pages, link)
				next = append(next, link)
			}
		}
		frontier = next
	}
	return pages, nil
}

// links returns the http(s) links of a page that stay on base's host,
// resolved against base, without fragments, in document order.
func links(content []byte, base *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		u := base.ResolveReference(ref)
		if (u.Scheme != "http" && u.Scheme != "https") || !strings.EqualFold(u.Host, base.Host) {
			return
		}
		u.Fragment = ""
		out = append(out, u.String())
	})
	return out
}
