package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Config holds all application configuration
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576" validate:"min=1"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	PredictionProvider   string        `env:"PREDICTION_PROVIDER" envDefault:"google" validate:"required"`
	PredictionModel      string        `env:"PREDICTION_MODEL" envDefault:"gemini-1.5-flash" validate:"required"`
	PredictionAPIKey     string        `env:"PREDICTION_API_KEY" validate:"required"`
	PredictionBaseURL    string        `env:"PREDICTION_BASE_URL" validate:"omitempty,url"`
	PredictionTimeout    time.Duration `env:"PREDICTION_TIMEOUT" envDefault:"30s" validate:"min=1ms"`
	PredictionRatePerSec int           `env:"PREDICTION_RATE_PER_SEC" envDefault:"5" validate:"min=1"`
	PredictionBurst      int           `env:"PREDICTION_BURST" envDefault:"5" validate:"min=1"`

	BreakerFailureThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5" validate:"min=1"`
	BreakerOpenTimeout      time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"loans"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// ErrInvalidTransactions is returned when the request body does not carry a usable transaction list
var ErrInvalidTransactions = errors.New("Transactions must be an array of numbers.")

// Risk categories accepted from the prediction model
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// FeatureSummary is the statistical digest of a transaction list
type FeatureSummary struct {
	Total          float64 `json:"total"`
	Average        float64 `json:"average"`
	Frequency      int     `json:"frequency"`
	MaxTransaction float64 `json:"max_transaction"`
	StdTransaction float64 `json:"std_transaction"`
}

// PredictionResult is what the prediction model returns for a feature summary
type PredictionResult struct {
	LoanLimit    float64 `json:"loanLimit" validate:"gte=0"`
	RiskCategory string  `json:"riskCategory" validate:"required,oneof=LOW MEDIUM HIGH"`
}

// PredictResponse is the body returned on a successful prediction
type PredictResponse struct {
	Features     FeatureSummary `json:"features"`
	LoanLimit    float64        `json:"loanLimit"`
	RiskCategory string         `json:"riskCategory"`
}

// ErrorResponse is the body returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// PredictionRecord is an audit row for one served prediction.
// Only the summary is kept, never the transactions themselves.
type PredictionRecord struct {
	ID        uuid.UUID
	RequestID string
	Model     string
	Features  FeatureSummary
	Result    PredictionResult
	CreatedAt time.Time
}
