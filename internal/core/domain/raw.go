package domain

// RawDocument represents opaque bytes fetched for a source.
// It is the fetcher's output before extraction.
type RawDocument struct {
	// Source is the source these bytes were fetched for.
	Source Source

	// URI is the resolved location (file path, final URL, s3 URI).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Path is a local file path holding Content, when one exists.
	// Extractors that need random access read from it.
	Path string

	// Metadata contains fetcher-specific key-value pairs.
	Metadata map[string]any
}

// Common MIME types recognised by extractors.
const (
	MIMETypePDF      = "application/pdf"
	MIMETypeHTML     = "text/html"
	MIMETypeMarkdown = "text/markdown"
	MIMETypePlain    = "text/plain"
	MIMETypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeOctet    = "application/octet-stream"
	MIMETypeEmail    = "message/rfc822"
)

// MIMETypeForExtension maps a lower-cased extension (with dot) to a MIME type.
// Returns the empty string for unknown extensions.
func MIMETypeForExtension(ext string) string {
	switch ext {
	case ".pdf":
		return MIMETypePDF
	case ".html", ".htm":
		return MIMETypeHTML
	case ".md", ".markdown":
		return MIMETypeMarkdown
	case ".txt", ".text", ".log", ".csv":
		return MIMETypePlain
	case ".docx":
		return MIMETypeDOCX
	case ".doc":
		return "application/msword"
	case ".odt":
		return "application/vnd.oasis.opendocument.text"
	case ".rtf":
		return "application/rtf"
	case ".xml":
		return "text/xml"
	case ".eml":
		return MIMETypeEmail
	default:
		return ""
	}
}
