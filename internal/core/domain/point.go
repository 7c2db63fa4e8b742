package domain

import "strings"

// StoredPoint is the persisted form of a passage in a vector store.
type StoredPoint struct {
	// ID is either a deterministic content-derived UUID or a random one.
	ID string

	// Vector is the embedding. Its length must equal the collection size.
	Vector []float32

	// Payload is the passage metadata plus chunk_text.
	Payload map[string]any
}

// Record is one point returned by a paginated scroll.
// Vectors are not returned.
type Record struct {
	ID      string
	Payload map[string]any
}

// Text returns the chunk_text payload value if it is a non-empty string.
func (r Record) Text() (string, bool) {
	s, ok := r.Payload[PayloadTextKey].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Cursor is an opaque scroll position issued by a vector store.
// The empty cursor means there are no further pages.
type Cursor string

// Done reports whether the cursor signals the end of the collection.
func (c Cursor) Done() bool {
	return c == ""
}

// Distance is the similarity metric of a collection.
type Distance string

// Supported distance metrics.
const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// IsValid returns true if the distance is recognised.
func (d Distance) IsValid() bool {
	switch d {
	case DistanceCosine, DistanceDot, DistanceEuclid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Distance) String() string {
	return string(d)
}

// ParseDistance parses a distance name case-insensitively.
func ParseDistance(s string) (Distance, bool) {
	switch {
	case strings.EqualFold(s, string(DistanceCosine)):
		return DistanceCosine, true
	case strings.EqualFold(s, string(DistanceDot)):
		return DistanceDot, true
	case strings.EqualFold(s, string(DistanceEuclid)):
		return DistanceEuclid, true
	default:
		return "", false
	}
}

// IDMode selects how point identifiers are derived.
type IDMode string

// Available id modes.
const (
	// IDModeDeterministic derives ids from metadata and content so that
	// re-ingesting identical passages overwrites instead of duplicating.
	IDModeDeterministic IDMode = "deterministic"

	// IDModeRandom assigns a fresh random id to every point.
	IDModeRandom IDMode = "random"
)

// IsValid returns true if the id mode is recognised.
func (m IDMode) IsValid() bool {
	return m == IDModeDeterministic || m == IDModeRandom
}
