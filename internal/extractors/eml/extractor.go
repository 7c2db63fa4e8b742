// Package eml provides the email tier for RFC 822 messages (.eml files).
// The message headers lead the text so that sender, recipients, date and
// subject are retrievable alongside the body.
package eml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jaytaylor/html2text"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Priority ranks the tier with the other format-specific file tiers.
const Priority = 70

// Extractor turns an email message into one text item.
type Extractor struct{}

// New creates a new email extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the tier name.
func (e *Extractor) Name() string {
	return "eml"
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return Priority
}

// Accepts reports whether the source is a local email message.
func (e *Extractor) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	return extractors.HasFormat(src, raw, domain.MIMETypeEmail, ".eml")
}

// Policy returns the segmentation policy.
func (e *Extractor) Policy() driven.SegmentPolicy {
	return driven.PolicyParagraph
}

// Extract parses the message and returns its headers and body as one item
// carrying the subject.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse message: %w", domain.ErrExtraction, err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	body, err := extractBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, h := range []struct{ name, value string }{
		{"From", decodeHeader(msg.Header.Get("From"))},
		{"To", decodeHeader(msg.Header.Get("To"))},
		{"Date", messageDate(msg.Header)},
		{"Subject", subject},
	} {
		if h.value != "" {
			fmt.Fprintf(&content, "%s: %s\n", h.name, h.value)
		}
	}
	content.WriteString("\n")
	content.WriteString(strings.TrimSpace(body))

	fields := extractors.SourceFields(raw)
	if subject != "" {
		fields["subject"] = subject
	}
	return []driven.Item{extractors.NewTextItem(strings.TrimSpace(content.String()), fields)}, nil
}

// messageDate normalises the Date header to RFC 3339. Headers that neither
// net/mail nor the fuzzy parser understand are kept verbatim.
func messageDate(h mail.Header) string {
	raw := h.Get("Date")
	if raw == "" {
		return ""
	}
	if t, err := h.Date(); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return raw
}

// decodeHeader decodes RFC 2047 encoded words.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractBody returns the text of a message body. Multipart messages prefer
// their text/plain parts over text/html ones.
func extractBody(contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, readErr := io.ReadAll(r)
		if readErr != nil {
			return "", fmt.Errorf("%w: read body: %w", domain.ErrExtraction, readErr)
		}
		return extractors.DecodeText(body), nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(r, params["boundary"])
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", domain.ErrExtraction, err)
	}
	if mediaType == domain.MIMETypeHTML {
		return htmlToText(body), nil
	}
	return extractors.DecodeText(body), nil
}

func extractMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the message; a malformed part keeps what was read.
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = domain.MIMETypeOctet
		}
		// multipart.Reader decodes quoted-printable transparently.
		content, readErr := io.ReadAll(part)
		part.Close()
		if readErr != nil {
			continue
		}

		switch {
		case mediaType == domain.MIMETypePlain:
			textParts = append(textParts, extractors.DecodeText(content))
		case mediaType == domain.MIMETypeHTML:
			htmlParts = append(htmlParts, htmlToText(content))
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, nestedErr := extractMultipart(bytes.NewReader(content), params["boundary"])
			if nestedErr == nil && nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

func htmlToText(body []byte) string {
	text, err := html2text.FromString(extractors.DecodeText(body), html2text.Options{OmitLinks: true})
	if err != nil {
		return extractors.DecodeText(body)
	}
	return text
}
