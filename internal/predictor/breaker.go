package predictor

import (
	"context"
	"errors"
	"time"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker around the predictor
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Breaker stops calling the prediction model after repeated failures.
// It never retries; while open, calls fail immediately with gobreaker.ErrOpenState.
type Breaker struct {
	next   models.Predictor
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

// NewBreaker wraps next with a circuit breaker
func NewBreaker(next models.Predictor, settings BreakerSettings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}

	b := &Breaker{
		next:   next,
		logger: log.With().Str("component", "prediction_breaker").Logger(),
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PredictionCB",
		MaxRequests: 1, // a single success in half-open closes the breaker
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		// a caller giving up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})

	return b
}

// Predict implements models.Predictor
func (b *Breaker) Predict(ctx context.Context, features models.FeatureSummary) (*models.PredictionResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Predict(ctx, features)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.PredictionResult), nil
}

// State reports the current breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
