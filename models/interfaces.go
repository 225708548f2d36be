package models

import "context"

// Predictor turns a feature summary into a loan prediction
type Predictor interface {
	Predict(ctx context.Context, features FeatureSummary) (*PredictionResult, error)
}

type PredictionCache interface {
	Get(ctx context.Context, features FeatureSummary) (*PredictionResult, bool)
	Set(ctx context.Context, features FeatureSummary, result PredictionResult) error
}

type PredictionStore interface {
	SavePrediction(ctx context.Context, record PredictionRecord) error
}
