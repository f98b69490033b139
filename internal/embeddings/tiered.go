package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Tiered tries a list of providers in order and serves from the first one
// that succeeds. Every call starts from the top of the list again, so a
// remote tier that recovers after an outage is picked back up automatically.
type Tiered struct {
	tiers  []Provider
	logger *zap.Logger

	mu     sync.RWMutex
	active string
}

// NewTiered builds a tiered provider. The tier order is the preference
// order; the last tier should be one that cannot fail.
func NewTiered(logger *zap.Logger, tiers ...Provider) (*Tiered, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: at least one tier required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiered{
		tiers:  tiers,
		logger: logger,
		active: tiers[0].Name(),
	}, nil
}

// EmbedDocuments embeds via the first tier that succeeds.
func (t *Tiered) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	var errs []error
	for _, tier := range t.tiers {
		vectors, err := tier.EmbedDocuments(ctx, texts)
		if err == nil {
			t.setActive(tier.Name())
			return vectors, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.logger.Warn("embedding tier failed, trying next",
			zap.String("tier", tier.Name()),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, errors.Join(errs...))
}

// EmbedQuery embeds via the first tier that succeeds.
func (t *Tiered) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var errs []error
	for _, tier := range t.tiers {
		vector, err := tier.EmbedQuery(ctx, text)
		if err == nil {
			t.setActive(tier.Name())
			return vector, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.logger.Warn("embedding tier failed, trying next",
			zap.String("tier", tier.Name()),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, errors.Join(errs...))
}

// Dimension reports the dimension of the tier that served the most recent
// successful call.
func (t *Tiered) Dimension() int {
	name := t.ActiveTier()
	for _, tier := range t.tiers {
		if tier.Name() == name {
			return tier.Dimension()
		}
	}
	return 0
}

// Name identifies the composite provider.
func (t *Tiered) Name() string {
	return "tiered"
}

// ActiveTier returns the name of the tier that served the most recent
// successful call.
func (t *Tiered) ActiveTier() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Close closes every tier, returning the first error seen.
func (t *Tiered) Close() error {
	var errs []error
	for _, tier := range t.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tiered) setActive(name string) {
	t.mu.Lock()
	t.active = name
	t.mu.Unlock()
}
