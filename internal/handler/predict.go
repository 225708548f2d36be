package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Alias1177/LoanPredictor/internal/calculate"
	"github.com/Alias1177/LoanPredictor/internal/observability"
	"github.com/Alias1177/LoanPredictor/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes = 1 << 20

// PredictorSource hands out the process-wide predictor
type PredictorSource interface {
	Get(ctx context.Context) (models.Predictor, error)
}

// Options are the optional collaborators of PredictHandler.
// Leave Cache or Store nil to disable them.
type Options struct {
	Cache        models.PredictionCache
	Store        models.PredictionStore
	Model        string
	MaxBodyBytes int64
}

// PredictHandler serves the loan prediction function
type PredictHandler struct {
	predictors   PredictorSource
	cache        models.PredictionCache
	store        models.PredictionStore
	model        string
	maxBodyBytes int64
	now          func() time.Time
}

// NewPredictHandler creates the prediction HTTP handler
func NewPredictHandler(predictors PredictorSource, opts Options) *PredictHandler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &PredictHandler{
		predictors:   predictors,
		cache:        opts.Cache,
		store:        opts.Store,
		model:        opts.Model,
		maxBodyBytes: opts.MaxBodyBytes,
		now:          time.Now,
	}
}

// ServeHTTP implements http.Handler
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	// Allow CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		observability.RequestsTotal.WithLabelValues(strconv.Itoa(http.StatusNoContent)).Inc()
		return
	}

	transactions, err := h.decodeTransactions(w, r)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected prediction request")
		h.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: models.ErrInvalidTransactions.Error()})
		return
	}

	resp, err := h.predict(r.Context(), transactions)
	if err != nil {
		logger.Error().Err(err).Msg("Prediction error")
		h.writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *PredictHandler) predict(ctx context.Context, transactions []float64) (*models.PredictResponse, error) {
	logger := zerolog.Ctx(ctx)

	// Extract features
	features := calculate.ExtractFeatures(transactions)
	if err := calculate.CheckFinite(features); err != nil {
		return nil, err
	}

	result, cached := h.lookup(ctx, features)
	if !cached {
		// Load AI model
		predictor, err := h.predictors.Get(ctx)
		if err != nil {
			return nil, err
		}

		result, err = predictor.Predict(ctx, features)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, errors.New("prediction model returned no result")
		}

		h.remember(ctx, features, *result)
	}

	observability.RiskCategories.WithLabelValues(result.RiskCategory).Inc()
	logger.Info().
		Int("frequency", features.Frequency).
		Float64("loan_limit", result.LoanLimit).
		Str("risk_category", result.RiskCategory).
		Bool("cached", cached).
		Msg("Prediction served")

	return &models.PredictResponse{
		Features:     features,
		LoanLimit:    result.LoanLimit,
		RiskCategory: result.RiskCategory,
	}, nil
}

// decodeTransactions accepts a JSON object whose "transactions" field is an array of numbers
func (h *PredictHandler) decodeTransactions(w http.ResponseWriter, r *http.Request) ([]float64, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))

	var body map[string]json.RawMessage
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON body")
	}

	raw, ok := body["transactions"]
	if !ok {
		return nil, errors.New("transactions field is missing")
	}

	// pointers let a null element be told apart from a zero amount
	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}
	if values == nil {
		return nil, errors.New("transactions is null")
	}

	transactions := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("transaction %d is null", i)
		}
		transactions[i] = *v
	}
	return transactions, nil
}

func (h *PredictHandler) lookup(ctx context.Context, features models.FeatureSummary) (*models.PredictionResult, bool) {
	if h.cache == nil {
		return nil, false
	}

	result, ok := h.cache.Get(ctx, features)
	if ok {
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return result, true
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()
	return nil, false
}

// remember writes the prediction to the cache and the audit store. Failures are only logged.
func (h *PredictHandler) remember(ctx context.Context, features models.FeatureSummary, result models.PredictionResult) {
	logger := zerolog.Ctx(ctx)

	if h.cache != nil {
		if err := h.cache.Set(ctx, features, result); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache prediction")
		}
	}

	if h.store != nil {
		record := models.PredictionRecord{
			ID:        uuid.New(),
			RequestID: RequestIDFromContext(ctx),
			Model:     h.model,
			Features:  features,
			Result:    result,
			CreatedAt: h.now().UTC(),
		}
		if err := h.store.SavePrediction(ctx, record); err != nil {
			logger.Warn().Err(err).Msg("Failed to store prediction audit record")
		}
	}
}

func (h *PredictHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(models.ErrorResponse{Error: err.Error()})
	}
	observability.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
