package calculate

import (
	"errors"
	"math"
	"sort"

	"github.com/Alias1177/LoanPredictor/models"
)

// ErrNonFiniteSummary is returned when amounts are too large for a float64 summary
var ErrNonFiniteSummary = errors.New("transaction amounts are too large to summarize")

// ExtractFeatures builds the statistical summary the prediction model is fed.
// An empty list yields an all-zero summary.
//
// Values are accumulated in ascending order so the result is bit-for-bit
// identical for any permutation of the same amounts.
func ExtractFeatures(transactions []float64) models.FeatureSummary {
	if len(transactions) == 0 {
		return models.FeatureSummary{}
	}

	sorted := make([]float64, len(transactions))
	copy(sorted, transactions)
	sort.Float64s(sorted)

	total := calculateSum(sorted)
	frequency := len(sorted)
	average := total / float64(frequency)

	return models.FeatureSummary{
		Total:          total,
		Average:        average,
		Frequency:      frequency,
		MaxTransaction: sorted[len(sorted)-1],
		StdTransaction: calculateStdDev(sorted, average),
	}
}

// CheckFinite rejects a summary with an infinite or NaN field
func CheckFinite(features models.FeatureSummary) error {
	for _, v := range []float64{
		features.Total,
		features.Average,
		features.MaxTransaction,
		features.StdTransaction,
	} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return ErrNonFiniteSummary
		}
	}
	return nil
}

func calculateSum(values []float64) float64 {
	var sum float64
	for _, value := range values {
		sum += value
	}
	return sum
}

// calculateStdDev returns the population standard deviation (divides by N).
// Deviations are scaled by the largest absolute value before squaring so
// amounts near the float64 limit do not overflow. values must be sorted.
func calculateStdDev(values []float64, mean float64) float64 {
	scale := math.Max(math.Abs(values[0]), math.Abs(values[len(values)-1]))
	if scale == 0 {
		return 0
	}
	if math.IsInf(scale, 0) {
		return math.Inf(1)
	}

	scaledMean := mean / scale
	var variance float64
	for _, value := range values {
		d := value/scale - scaledMean
		variance += d * d
	}
	return math.Sqrt(variance/float64(len(values))) * scale
}
