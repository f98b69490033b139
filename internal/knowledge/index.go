package knowledge

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a query vector's dimensionality does
// not match the index. Callers treat it as an index-invalidating event and
// fall back to lexical scoring.
var ErrDimensionMismatch = errors.New("knowledge: vector dimension mismatch")

// Index is a flat inner-product similarity index. Vectors are L2-normalized
// at insert time, so inner product equals cosine similarity. Exported fields
// keep it gob-serializable.
type Index struct {
	Dim     int
	Vectors [][]float32
}

// NewIndex builds an index over the given vectors. All vectors must share
// one dimensionality; normalization happens on copies, the input is not
// mutated.
func NewIndex(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, errors.New("knowledge: no vectors to index")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("knowledge: zero-dimensional vectors")
	}

	normalized := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dim %d, want %d", ErrDimensionMismatch, i, len(vec), dim)
		}
		normalized[i] = normalize(vec)
	}

	return &Index{Dim: dim, Vectors: normalized}, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	return len(ix.Vectors)
}

// hit is one scored index position.
type hit struct {
	pos   int
	score float64
}

// Search normalizes the query, scores it against every indexed vector and
// returns up to topK hits at or above minScore, best first. Ties preserve
// insertion order.
func (ix *Index) Search(query []float32, topK int, minScore float64) ([]hit, error) {
	if len(query) != ix.Dim {
		return nil, fmt.Errorf("%w: query has dim %d, index has %d", ErrDimensionMismatch, len(query), ix.Dim)
	}

	q := normalize(query)
	hits := make([]hit, 0, len(ix.Vectors))
	for pos, vec := range ix.Vectors {
		hits = append(hits, hit{pos: pos, score: dot(q, vec)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	hits = hits[:topK]

	filtered := hits[:0]
	for _, h := range hits {
		if h.score >= minScore {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
