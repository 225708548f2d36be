package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// providerBaseURLs maps a provider name to its OpenAI-compatible endpoint
var providerBaseURLs = map[string]string{
	"google": "https://generativelanguage.googleapis.com/v1beta/openai",
	"openai": "https://api.openai.com/v1",
}

// Load initializes configuration from .env and environment variables
func Load() (*models.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return Parse()
}

// Parse reads configuration from the current environment only
func Parse() (*models.Config, error) {
	var cfg models.Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.PredictionProvider = strings.ToLower(strings.TrimSpace(cfg.PredictionProvider))
	if cfg.PredictionBaseURL == "" {
		baseURL, ok := providerBaseURLs[cfg.PredictionProvider]
		if !ok {
			return nil, fmt.Errorf("unknown prediction provider %q and PREDICTION_BASE_URL not set", cfg.PredictionProvider)
		}
		cfg.PredictionBaseURL = baseURL
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, formatValidationErrors(err)
	}

	return &cfg, nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validating config: %w", err)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, "; "))
}
