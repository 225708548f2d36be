package predictor

import (
	"context"
	"fmt"
	"sync"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/rs/zerolog/log"
)

// Factory constructs the process-wide predictor
type Factory func() (models.Predictor, error)

// Provider lazily builds a predictor on first use and hands out the same
// instance for the rest of the process lifetime. Construction is serialized,
// so concurrent first requests build it exactly once. A failed construction
// is not remembered and is attempted again on the next call.
type Provider struct {
	mu        sync.Mutex
	factory   Factory
	predictor models.Predictor
}

// NewProvider creates a Provider around factory
func NewProvider(factory Factory) *Provider {
	return &Provider{factory: factory}
}

// Get returns the cached predictor, constructing it if needed
func (p *Provider) Get(ctx context.Context) (models.Predictor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.predictor != nil {
		return p.predictor, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predictor, err := p.factory()
	if err != nil {
		return nil, fmt.Errorf("loading prediction model: %w", err)
	}

	log.Info().Str("component", "predictor_provider").Msg("Prediction model client initialized")
	p.predictor = predictor
	return predictor, nil
}
