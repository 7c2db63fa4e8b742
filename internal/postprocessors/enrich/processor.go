// Package enrich provides the metadata enrichment processor.
package enrich

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Name is the registry name of the processor.
const Name = "enrich"

// MinYear is the earliest year accepted from a fuzzy date parse.
const MinYear = 1900

// Ensure Processor implements the interface.
var _ driven.PassageProcessor = (*Processor)(nil)

var (
	isoDate = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

	month = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|` +
		`sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

	// dateCandidates find date-like substrings for the fuzzy parse.
	dateCandidates = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + month + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+` + month + `\.?,?\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.]\d{4}\b`),
		regexp.MustCompile(`\b\d{4}/\d{1,2}/\d{1,2}\b`),
	}

	ordinal = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
)

// Processor fills source, section, neighbour links and date on every main
// pass passage. Existing keys are never overwritten.
type Processor struct {
	source string
}

// New creates an enrichment processor. An empty source falls back to the
// passage set's source.
func New(source string) *Processor {
	return &Processor{source: source}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process enriches set.Passages in place. Derived passages are untouched.
func (p *Processor) Process(_ context.Context, set *driven.PassageSet) error {
	source := p.source
	if source == "" {
		source = set.Source
	}

	last := len(set.Passages) - 1
	for i := range set.Passages {
		passage := &set.Passages[i]

		passage.SetDefault(domain.MetaSource, source)
		passage.SetDefault(domain.MetaSection, Section(passage.Content))

		var prev, next any
		if i > 0 {
			prev = i - 1
		}
		if i < last {
			next = i + 1
		}
		passage.SetDefault(domain.MetaNeighborPrev, prev)
		passage.SetDefault(domain.MetaNeighborNext, next)

		if _, ok := passage.Metadata[domain.MetaDate]; !ok {
			if date, ok := DetectDate(passage.Content); ok {
				passage.Metadata[domain.MetaDate] = date
			}
		}
	}
	return nil
}

// Section returns the first line of content, trimmed and cut to
// domain.SectionMaxChars runes.
func Section(content string) string {
	first, _, _ := strings.Cut(content, "\n")
	first = strings.TrimSpace(first)

	runes := []rune(first)
	if len(runes) > domain.SectionMaxChars {
		return string(runes[:domain.SectionMaxChars])
	}
	return first
}

// DetectDate returns a YYYY-MM-DD date for content. An ISO date in the text
// is returned verbatim; otherwise the whole text and then date-like
// substrings are parsed, keeping the first result from MinYear on.
func DetectDate(content string) (string, bool) {
	if m := isoDate.FindStringSubmatch(content); m != nil {
		return m[1], true
	}

	if t, ok := parse(strings.TrimSpace(content)); ok {
		return t.Format(time.DateOnly), true
	}
	for _, candidate := range candidates(content) {
		if t, ok := parse(candidate); ok {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

// candidates returns date-like substrings in order of appearance.
func candidates(content string) []string {
	type match struct {
		pos  int
		text string
	}
	var found []match
	for _, re := range dateCandidates {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			found = append(found, match{pos: loc[0], text: content[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	out := make([]string, len(found))
	for i, m := range found {
		out[i] = ordinal.ReplaceAllString(m.text, "$1")
	}
	return out
}

// parse runs the fuzzy parser. The parser can panic on odd input, so the
// panic is turned into a failed parse.
func parse(s string) (t time.Time, ok bool) {
	if s == "" || len(s) > 64 {
		return time.Time{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseAny(s)
	if err != nil || parsed.Year() < MinYear {
		return time.Time{}, false
	}
	return parsed, true
}

