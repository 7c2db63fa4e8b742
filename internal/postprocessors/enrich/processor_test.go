package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func set(contents ...string) *driven.PassageSet {
	s := &driven.PassageSet{Source: "set-source"}
	for _, c := range contents {
		s.Passages = append(s.Passages, domain.Passage{Content: c, Metadata: map[string]any{}})
	}
	return s
}

func TestProcessor_Neighbours(t *testing.T) {
	s := set("a", "b", "c")
	require.NoError(t, New("doc.pdf").Process(context.Background(), s))

	tests := []struct {
		prev, next any
	}{
		{nil, 1},
		{0, 2},
		{1, nil},
	}
	for i, tt := range tests {
		meta := s.Passages[i].Metadata
		assert.Equal(t, tt.prev, meta[domain.MetaNeighborPrev], "passage %d prev", i)
		assert.Equal(t, tt.next, meta[domain.MetaNeighborNext], "passage %d next", i)
		assert.Contains(t, meta, domain.MetaNeighborPrev)
		assert.Contains(t, meta, domain.MetaNeighborNext)
		assert.Equal(t, "doc.pdf", meta[domain.MetaSource])
	}
}

func TestProcessor_SinglePassage(t *testing.T) {
	s := set("only")
	require.NoError(t, New("").Process(context.Background(), s))

	meta := s.Passages[0].Metadata
	assert.Nil(t, meta[domain.MetaNeighborPrev])
	assert.Nil(t, meta[domain.MetaNeighborNext])
	assert.Equal(t, "set-source", meta[domain.MetaSource], "falls back to the set source")
}

func TestProcessor_SetIfAbsent(t *testing.T) {
	s := set("Heading line\nbody 2020-01-01")
	s.Passages[0].Metadata = map[string]any{
		domain.MetaSource:       "https://example.com/page",
		domain.MetaSection:      "Existing",
		domain.MetaNeighborPrev: 7,
		domain.MetaDate:         "1999-12-31",
	}
	require.NoError(t, New("example.com").Process(context.Background(), s))

	meta := s.Passages[0].Metadata
	assert.Equal(t, "https://example.com/page", meta[domain.MetaSource])
	assert.Equal(t, "Existing", meta[domain.MetaSection])
	assert.Equal(t, 7, meta[domain.MetaNeighborPrev])
	assert.Nil(t, meta[domain.MetaNeighborNext])
	assert.Equal(t, "1999-12-31", meta[domain.MetaDate])
}

func TestProcessor_DerivedUntouched(t *testing.T) {
	s := set("main")
	s.Derived = []domain.Passage{{Content: "summary", Metadata: map[string]any{}}}
	require.NoError(t, New("x").Process(context.Background(), s))

	assert.Empty(t, s.Derived[0].Metadata)
}

func TestSection(t *testing.T) {
	assert.Equal(t, "Title", Section("  Title  \nbody"))
	assert.Equal(t, "", Section("\nstarts with newline"))
	assert.Equal(t, strings.Repeat("é", 100), Section(strings.Repeat("é", 150)))
}

func TestDetectDate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"iso verbatim", "Released on 2023-02-30 to the public.", "2023-02-30", true},
		{"first iso wins", "From 2021-01-05 until 2022-03-04.", "2021-01-05", true},
		{"whole text", "March 5, 2024", "2024-03-05", true},
		{"long month in prose", "The meeting on January 12, 2021 was short.", "2021-01-12", true},
		{"ordinal", "Signed on the 3rd March 2019 by both parties.", "2019-03-03", true},
		{"slashes", "Invoice dated 12/31/2020, due soon.", "2020-12-31", true},
		{"year slash first", "Logged 2018/07/04 at noon.", "2018-07-04", true},
		{"no date", "Nothing temporal in this sentence.", "", false},
		{"too old", "Founded on July 4, 1776 in Philadelphia.", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectDate(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_NeverPanics(t *testing.T) {
	for _, s := range []string{"1/", "//", "12:", "Mon, 02 Jan", "0000-00-00T", "3 Mar ,"} {
		assert.NotPanics(t, func() { parse(s) }, s)
	}
}
