package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint derives the cache key for a request: xxhash64 over the
// endpoint identity and the canonical JSON of its normalized parameters.
// json.Marshal sorts map keys, so identical parameter sets hash identically
// regardless of field order in the original body.
func Fingerprint(endpoint string, params map[string]any) (string, error) {
	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("canonicalizing params: %w", err)
	}

	h := xxhash.New()
	_, _ = h.WriteString(endpoint)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(canonical)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
