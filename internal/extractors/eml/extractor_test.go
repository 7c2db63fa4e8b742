package eml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func extract(t *testing.T, message string) (string, map[string]any) {
	t.Helper()
	raw := &domain.RawDocument{
		Source:  domain.Source{Ref: "mail.eml", Kind: domain.SourceKindFile},
		Content: []byte(message),
	}
	items, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	text, ok := items[0].Text()
	require.True(t, ok)
	return text, items[0].Fields()
}

func TestExtractor_Tier(t *testing.T) {
	e := New()
	assert.Equal(t, "eml", e.Name())
	assert.Equal(t, 70, e.Priority())
	assert.Equal(t, driven.PolicyParagraph, e.Policy())

	file := domain.Source{Ref: "inbox/msg.eml", Kind: domain.SourceKindFile}
	assert.True(t, e.Accepts(file, &domain.RawDocument{Source: file}))

	typed := domain.Source{Ref: "msg", Kind: domain.SourceKindFile}
	assert.True(t, e.Accepts(typed, &domain.RawDocument{Source: typed, MIMEType: "message/rfc822"}))

	url := domain.Source{Ref: "https://x.test/msg.eml", Kind: domain.SourceKindURL}
	assert.False(t, e.Accepts(url, &domain.RawDocument{Source: url}))
}

func TestExtractor_PlainMessage(t *testing.T) {
	text, fields := extract(t, "From: Alice <alice@example.com>\r\n"+
		"To: bob@example.com\r\n"+
		"Subject: Quarterly numbers\r\n"+
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n"+
		"\r\n"+
		"Revenue is up.\r\n")

	assert.Contains(t, text, "From: Alice <alice@example.com>")
	assert.Contains(t, text, "To: bob@example.com")
	assert.Contains(t, text, "Date: 2006-01-02T22:04:05Z")
	assert.Contains(t, text, "Subject: Quarterly numbers")
	assert.Contains(t, text, "Revenue is up.")
	assert.Equal(t, "mail.eml", fields["source"])
	assert.Equal(t, "Quarterly numbers", fields["subject"])
}

func TestExtractor_MultipartPrefersPlain(t *testing.T) {
	text, _ := extract(t, "Subject: Hi\r\n"+
		"Content-Type: multipart/alternative; boundary=b1\r\n"+
		"\r\n"+
		"--b1\r\n"+
		"Content-Type: text/html\r\n"+
		"\r\n"+
		"<p>HTML version</p>\r\n"+
		"--b1\r\n"+
		"Content-Type: text/plain\r\n"+
		"\r\n"+
		"Plain version\r\n"+
		"--b1--\r\n")

	assert.Contains(t, text, "Plain version")
	assert.NotContains(t, text, "HTML version")
}

func TestExtractor_HTMLOnly(t *testing.T) {
	text, _ := extract(t, "Subject: News\r\n"+
		"Content-Type: text/html\r\n"+
		"\r\n"+
		"<html><body><p>Hello <b>world</b></p></body></html>\r\n")

	assert.Contains(t, text, "Hello")
	assert.NotContains(t, text, "<p>")
}

func TestExtractor_EncodedSubject(t *testing.T) {
	_, fields := extract(t, "Subject: =?UTF-8?B?SGVsbG8gV29ybGQ=?=\r\n\r\nbody\r\n")
	assert.Equal(t, "Hello World", fields["subject"])
}

func TestExtractor_FuzzyDate(t *testing.T) {
	text, _ := extract(t, "Subject: x\r\nDate: 2024-03-05 10:00:00\r\n\r\nbody\r\n")
	assert.Contains(t, text, "Date: 2024-03-05T10:00:00Z")
}

func TestExtractor_Invalid(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Extract(context.Background(), &domain.RawDocument{Content: []byte("no headers here")})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
