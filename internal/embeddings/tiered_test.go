package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProvider returns canned vectors or a canned error.
type stubProvider struct {
	name string
	dim  int
	err  error
}

func (s *stubProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, s.dim)
	}
	return vectors, nil
}

func (s *stubProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *stubProvider) Dimension() int { return s.dim }
func (s *stubProvider) Name() string   { return s.name }
func (s *stubProvider) Close() error   { return nil }

func TestTiered_FirstTierServes(t *testing.T) {
	tiered, err := NewTiered(zap.NewNop(),
		&stubProvider{name: "remote", dim: 4},
		&stubProvider{name: "lexical"},
	)
	require.NoError(t, err)

	vec, err := tiered.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, "remote", tiered.ActiveTier())
	assert.Equal(t, 4, tiered.Dimension())
}

func TestTiered_Failover(t *testing.T) {
	tiered, err := NewTiered(zap.NewNop(),
		&stubProvider{name: "remote", err: errors.New("connection refused")},
		&stubProvider{name: "lexical", dim: 2},
	)
	require.NoError(t, err)

	vec, err := tiered.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, "lexical", tiered.ActiveTier())
}

func TestTiered_AllTiersFail(t *testing.T) {
	tiered, err := NewTiered(zap.NewNop(),
		&stubProvider{name: "remote", err: errors.New("connection refused")},
		&stubProvider{name: "local", err: errors.New("model not loaded")},
	)
	require.NoError(t, err)

	_, err = tiered.EmbedDocuments(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestTiered_RecoversUpward(t *testing.T) {
	remote := &stubProvider{name: "remote", dim: 4, err: errors.New("outage")}
	tiered, err := NewTiered(zap.NewNop(),
		remote,
		&stubProvider{name: "lexical", dim: 2},
	)
	require.NoError(t, err)

	_, err = tiered.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "lexical", tiered.ActiveTier())

	remote.err = nil
	_, err = tiered.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "remote", tiered.ActiveTier())
}

func TestTiered_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tiered, err := NewTiered(zap.NewNop(),
		&stubProvider{name: "remote", err: errors.New("connection refused")},
		&stubProvider{name: "lexical", dim: 2},
	)
	require.NoError(t, err)

	_, err = tiered.EmbedQuery(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTiered_RequiresTiers(t *testing.T) {
	_, err := NewTiered(zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
