package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loan_predictor"

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Prediction requests by response status code",
		},
		[]string{"status"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Latency of calls to the prediction model",
			Buckets:   prometheus.DefBuckets,
		},
	)

	PredictionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_failures_total",
			Help:      "Failed calls to the prediction model",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prediction cache lookups by result",
		},
		[]string{"result"},
	)

	RiskCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_category_total",
			Help:      "Served predictions by risk category",
		},
		[]string{"category"},
	)
)
