package predictor

import (
	"context"
	"time"

	"github.com/Alias1177/LoanPredictor/internal/api/gemini"
	"github.com/Alias1177/LoanPredictor/internal/observability"
	platformhttp "github.com/Alias1177/LoanPredictor/internal/platform/http"
	"github.com/Alias1177/LoanPredictor/models"
)

// NewFactory returns the factory for the configured prediction model:
// a rate limited OpenAI-compatible client, instrumented, behind a circuit breaker.
func NewFactory(cfg *models.Config) Factory {
	return func() (models.Predictor, error) {
		httpClient := platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        cfg.PredictionTimeout,
			RequestsPerSec: cfg.PredictionRatePerSec,
			Burst:          cfg.PredictionBurst,
		})

		client, err := gemini.NewClient(gemini.Options{
			APIKey:     cfg.PredictionAPIKey,
			BaseURL:    cfg.PredictionBaseURL,
			Provider:   cfg.PredictionProvider,
			Model:      cfg.PredictionModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}

		return NewBreaker(Instrument(client), BreakerSettings{
			FailureThreshold: cfg.BreakerFailureThreshold,
			OpenTimeout:      cfg.BreakerOpenTimeout,
		}), nil
	}
}

type instrumented struct {
	next models.Predictor
}

// Instrument records latency and failures of every call to next
func Instrument(next models.Predictor) models.Predictor {
	return &instrumented{next: next}
}

func (i *instrumented) Predict(ctx context.Context, features models.FeatureSummary) (*models.PredictionResult, error) {
	start := time.Now()
	result, err := i.next.Predict(ctx, features)
	observability.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.PredictionFailures.Inc()
		return nil, err
	}
	return result, nil
}
