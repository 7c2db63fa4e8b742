package domain

import (
	"fmt"
	"strings"
)

// WarningKind classifies a recovered, non-fatal failure.
type WarningKind string

// Warning kinds.
const (
	WarningExtraction  WarningKind = "extraction"
	WarningSummaryItem WarningKind = "summary_item"
	WarningIndexWrite  WarningKind = "index_write"
	WarningQuality     WarningKind = "quality"
)

// Sentinel returns the sentinel error matching this kind.
func (k WarningKind) Sentinel() error {
	switch k {
	case WarningExtraction:
		return ErrExtraction
	case WarningSummaryItem:
		return ErrSummaryItem
	case WarningIndexWrite:
		return ErrIndexWrite
	case WarningQuality:
		return ErrQuality
	default:
		return nil
	}
}

// Warning is a recovered failure with enough context to diagnose it.
type Warning struct {
	Kind WarningKind

	// Source is the source reference being processed.
	Source string

	// Backend names the tier, processor or writer that failed.
	Backend string

	// ChunkIndex is the passage position, or -1 when not applicable.
	ChunkIndex int

	// Err is the underlying cause.
	Err error
}

// NewWarning builds a warning with no chunk index.
func NewWarning(kind WarningKind, source, backend string, err error) Warning {
	return Warning{Kind: kind, Source: source, Backend: backend, ChunkIndex: -1, Err: err}
}

// Error implements error so warnings can be matched with errors.Is.
func (w Warning) Error() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Source != "" {
		fmt.Fprintf(&b, " source=%s", w.Source)
	}
	if w.Backend != "" {
		fmt.Fprintf(&b, " backend=%s", w.Backend)
	}
	if w.ChunkIndex >= 0 {
		fmt.Fprintf(&b, " chunk=%d", w.ChunkIndex)
	}
	if w.Err != nil {
		fmt.Fprintf(&b, ": %v", w.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause.
func (w Warning) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := w.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if w.Err != nil {
		errs = append(errs, w.Err)
	}
	return errs
}
