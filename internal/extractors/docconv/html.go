package docconv

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Readability thresholds, the defaults of the docd server. docconv reads
// them from package state, which is zero until set.
var readabilityOptions = docconv.HTMLReadabilityOptions{
	LengthLow:             70,
	LengthHigh:            200,
	StopwordsLow:          0.2,
	StopwordsHigh:         0.3,
	MaxLinkDensity:        0.2,
	MaxHeadingDistance:    200,
	ReadabilityUseClasses: "good,neargood",
}

var setReadability sync.Once

// junkSelector matches elements whose content is never document text.
const junkSelector = "script, style, noscript, template, iframe, svg, head > link"

// convertHTML extracts text from an HTML page without docconv's Tidy step,
// which needs an external binary. goquery re-renders the page as well-formed
// markup for docconv's XML text walker. When readability keeps no paragraph
// the full page text is used.
func convertHTML(content []byte, readability bool) (string, map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("%w: parse html: %w", domain.ErrExtraction, err)
	}

	meta := map[string]string{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}

	doc.Find(junkSelector).Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	markup, err := goquery.OuterHtml(body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: render html: %w", domain.ErrExtraction, err)
	}

	if readability {
		setReadability.Do(func() { docconv.HTMLReadabilityOptionsValues = readabilityOptions })
		if readable := docconv.HTMLReadability(strings.NewReader(markup)); len(bytes.TrimSpace(readable)) > 0 {
			return strings.TrimSpace(string(readable)), meta, nil
		}
	}

	text := strings.TrimSpace(docconv.HTMLToText(strings.NewReader(markup)))
	if text == "" {
		// The XML walker gives up on markup it cannot decode.
		text = strings.TrimSpace(body.Text())
	}
	return text, meta, nil
}
