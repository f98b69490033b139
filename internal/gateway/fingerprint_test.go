package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a, err := Fingerprint("chat", map[string]any{"prompt": "hi", "format": "text"})
	require.NoError(t, err)
	b, err := Fingerprint("chat", map[string]any{"format": "text", "prompt": "hi"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestFingerprint_DistinguishesParams(t *testing.T) {
	a, err := Fingerprint("chat", map[string]any{"prompt": "hi"})
	require.NoError(t, err)
	b, err := Fingerprint("chat", map[string]any{"prompt": "bye"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFingerprint_DistinguishesEndpoints(t *testing.T) {
	params := map[string]any{"prompt": "hi"}
	a, err := Fingerprint("chat", params)
	require.NoError(t, err)
	b, err := Fingerprint("search", params)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
