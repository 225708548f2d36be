package calculate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractFeatures(t *testing.T) {
	tests := []struct {
		name         string
		transactions []float64
		expected     models.FeatureSummary
	}{
		{
			name:         "Empty list",
			transactions: []float64{},
			expected:     models.FeatureSummary{},
		},
		{
			name:         "Nil list",
			transactions: nil,
			expected:     models.FeatureSummary{},
		},
		{
			name:         "Three transactions",
			transactions: []float64{100, 200, 300},
			expected: models.FeatureSummary{
				Total:          600,
				Average:        200,
				Frequency:      3,
				MaxTransaction: 300,
				StdTransaction: 81.64965809277261,
			},
		},
		{
			name:         "Single transaction",
			transactions: []float64{42.5},
			expected: models.FeatureSummary{
				Total:          42.5,
				Average:        42.5,
				Frequency:      1,
				MaxTransaction: 42.5,
				StdTransaction: 0,
			},
		},
		{
			name:         "Only negative amounts",
			transactions: []float64{-10, -30, -20},
			expected: models.FeatureSummary{
				Total:          -60,
				Average:        -20,
				Frequency:      3,
				MaxTransaction: -10,
				StdTransaction: 8.16496580927726,
			},
		},
		{
			name:         "Zeros",
			transactions: []float64{0, 0, 0, 0},
			expected: models.FeatureSummary{
				Frequency: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFeatures(tt.transactions)

			assert.Equal(t, tt.expected.Frequency, got.Frequency)
			assert.InDelta(t, tt.expected.Total, got.Total, 1e-9)
			assert.InDelta(t, tt.expected.Average, got.Average, 1e-9)
			assert.InDelta(t, tt.expected.MaxTransaction, got.MaxTransaction, 1e-9)
			assert.InDelta(t, tt.expected.StdTransaction, got.StdTransaction, 1e-9)
		})
	}
}

func TestExtractFeaturesEmptyIsExactlyZero(t *testing.T) {
	got := ExtractFeatures([]float64{})

	assert.Equal(t, models.FeatureSummary{}, got)
	assert.False(t, math.IsNaN(got.Average))
	assert.False(t, math.IsNaN(got.StdTransaction))
}

func TestExtractFeaturesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(50)
		transactions := make([]float64, n)
		trueMax := math.Inf(-1)
		for j := range transactions {
			transactions[j] = rng.Float64()*2000 - 1000
			trueMax = math.Max(trueMax, transactions[j])
		}

		got := ExtractFeatures(transactions)

		assert.Equal(t, n, got.Frequency)
		assert.GreaterOrEqual(t, got.StdTransaction, 0.0)
		assert.Equal(t, trueMax, got.MaxTransaction)

		shuffled := append([]float64(nil), transactions...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		reordered := ExtractFeatures(shuffled)

		assert.Equal(t, got, reordered)
	}
}

func TestExtractFeaturesLargeAmounts(t *testing.T) {
	got := ExtractFeatures([]float64{1e200, -1e200})

	assert.Equal(t, 0.0, got.Total)
	assert.Equal(t, 0.0, got.Average)
	assert.Equal(t, 1e200, got.MaxTransaction)
	assert.InEpsilon(t, 1e200, got.StdTransaction, 1e-12)
	assert.NoError(t, CheckFinite(got))

	got = ExtractFeatures([]float64{1e300, 3e300, 2e300})
	assert.InEpsilon(t, 8.16496580927726e299, got.StdTransaction, 1e-12)
	assert.NoError(t, CheckFinite(got))
}

func TestCheckFinite(t *testing.T) {
	tests := []struct {
		name         string
		transactions []float64
		wantErr      bool
	}{
		{name: "Empty list", transactions: nil},
		{name: "Regular amounts", transactions: []float64{100, 200, 300}},
		{name: "Total overflows", transactions: []float64{1e308, 1e308}, wantErr: true},
		{name: "Negative total overflows", transactions: []float64{-1e308, -1e308}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFinite(ExtractFeatures(tt.transactions))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNonFiniteSummary)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractFeaturesDoesNotMutateInput(t *testing.T) {
	transactions := []float64{5, 1, 3}
	ExtractFeatures(transactions)

	assert.Equal(t, []float64{5, 1, 3}, transactions)
}
