package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndex_RejectsMixedDimensions(t *testing.T) {
	_, err := NewIndex([][]float32{{1, 0}, {1, 0, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIndex_SearchRanksByCosine(t *testing.T) {
	// Unnormalized on purpose: magnitude must not affect ranking.
	ix, err := NewIndex([][]float32{
		{10, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	})
	require.NoError(t, err)

	hits, err := ix.Search([]float32{1, 0, 0}, 3, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, 0, hits[0].pos)
	assert.InDelta(t, 1.0, hits[0].score, 1e-6)
	assert.Equal(t, 2, hits[1].pos)
	assert.Equal(t, 1, hits[2].pos)
}

func TestIndex_SearchMinScoreFilter(t *testing.T) {
	ix, err := NewIndex([][]float32{
		{1, 0},
		{0, 1},
	})
	require.NoError(t, err)

	hits, err := ix.Search([]float32{1, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].pos)
}

func TestIndex_SearchTopKBound(t *testing.T) {
	ix, err := NewIndex([][]float32{{1, 0}, {1, 0}, {1, 0}})
	require.NoError(t, err)

	hits, err := ix.Search([]float32{1, 0}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	// Stable sort keeps insertion order among equal scores.
	assert.Equal(t, 0, hits[0].pos)
	assert.Equal(t, 1, hits[1].pos)
}

func TestIndex_SearchDimensionMismatch(t *testing.T) {
	ix, err := NewIndex([][]float32{{1, 0, 0}})
	require.NoError(t, err)

	_, err = ix.Search([]float32{1, 0}, 1, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
