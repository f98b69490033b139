package embeddings

import (
	"context"
	"sort"
	"strings"
)

// LexicalProvider is the last-resort tier. It builds term-frequency vectors
// over a vocabulary derived from each batch, so vectors from different calls
// are not comparable with each other. Dimension reports 0 to signal this.
//
// It never fails and requires no model files or network access.
type LexicalProvider struct{}

// NewLexicalProvider returns the term-frequency fallback provider.
func NewLexicalProvider() *LexicalProvider {
	return &LexicalProvider{}
}

// EmbedDocuments vectorizes texts against a vocabulary built from this batch
// alone. The vocabulary is sorted so identical batches produce identical
// vectors.
func (p *LexicalProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vocab := make(map[string]int)
	tokenized := make([][]string, len(texts))
	for i, text := range texts {
		tokens := tokenize(text)
		tokenized[i] = tokens
		for _, tok := range tokens {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = 0
			}
		}
	}

	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for i, term := range terms {
		vocab[term] = i
	}

	vectors := make([][]float32, len(texts))
	for i, tokens := range tokenized {
		vec := make([]float32, len(terms))
		for _, tok := range tokens {
			vec[vocab[tok]]++
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// EmbedQuery vectorizes a single text against its own vocabulary.
func (p *LexicalProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension returns 0: lexical vectors have per-batch dimensionality and
// must not be compared across batches.
func (p *LexicalProvider) Dimension() int {
	return 0
}

// Name identifies this tier.
func (p *LexicalProvider) Name() string {
	return "lexical"
}

// Close is a no-op.
func (p *LexicalProvider) Close() error {
	return nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
