package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// PointID returns the stored point id for a passage.
//
// In deterministic mode the id is a UUIDv5 in the URL namespace over the
// key-sorted JSON of the metadata, a newline, and the content. The same
// passage therefore always maps to the same point. Random mode returns a
// fresh UUIDv4.
func PointID(meta map[string]any, content string, mode domain.IDMode) (string, error) {
	switch mode {
	case domain.IDModeRandom:
		return uuid.NewString(), nil
	case domain.IDModeDeterministic, "":
	default:
		return "", fmt.Errorf("%w: unknown id mode %q", domain.ErrConfiguration, mode)
	}

	key, err := canonicalJSON(meta)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key+"\n"+content)).String(), nil
}

// canonicalJSON encodes metadata with sorted keys at every level.
// A nil map encodes as {}.
func canonicalJSON(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	// encoding/json sorts map keys, including nested maps.
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("%w: metadata is not serialisable: %w", domain.ErrInvalidInput, err)
	}
	return string(b), nil
}
