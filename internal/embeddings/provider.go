// Package embeddings provides text embedding generation via a tiered chain
// of providers: a remote embedding service, a local ONNX model, and a
// deterministic lexical fallback that never fails.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider is the interface for a single embedding tier.
type Provider interface {
	// EmbedDocuments generates embeddings for multiple texts, one vector
	// per input, all of equal dimensionality within the batch.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for this provider, or 0
	// when the dimensionality is unstable across calls (lexical tier).
	// Vectors from a zero-dimension provider must never be mixed across
	// batches; any index built from them is valid only for that batch.
	Dimension() int

	// Name identifies the tier in logs and stats.
	Name() string

	// Close releases resources held by the provider.
	Close() error
}
