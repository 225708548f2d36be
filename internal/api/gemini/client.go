package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCompletion   = errors.New("prediction model returned no choices")
	ErrMalformedResponse = errors.New("prediction model returned a malformed response")
)

const systemPrompt = `You are a credit risk model for a consumer lending product.
Given a statistical summary of a customer's transaction history, estimate the maximum loan
amount the customer can safely be offered and classify their risk.
Reply with a single JSON object and nothing else:
{"loanLimit": <non-negative number>, "riskCategory": "LOW" | "MEDIUM" | "HIGH"}`

// Options configures the prediction client
type Options struct {
	APIKey     string
	BaseURL    string
	Provider   string
	Model      string
	HTTPClient *http.Client
}

// Client wraps an OpenAI-compatible chat completion API and implements models.Predictor
type Client struct {
	client   *openai.Client
	model    string
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewClient creates a new prediction client bound to a provider and model
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("prediction API key is not configured")
	}
	if opts.Model == "" {
		return nil, errors.New("prediction model is not configured")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &Client{
		client:   openai.NewClientWithConfig(cfg),
		model:    opts.Model,
		validate: validator.New(),
		logger: log.With().
			Str("component", "prediction_client").
			Str("provider", opts.Provider).
			Str("model", opts.Model).
			Logger(),
	}, nil
}

// Predict asks the model for a loan limit and risk category
func (c *Client) Predict(ctx context.Context, features models.FeatureSummary) (*models.PredictionResult, error) {
	prompt, err := FormatFeaturePrompt(features)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("prompt", prompt).Msg("Sending features to prediction model")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		c.logger.Error().Err(err).Msg("Prediction API error")
		return nil, err
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("Prediction model returned empty choices")
		return nil, ErrEmptyCompletion
	}

	result, err := c.parsePrediction(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error().Err(err).Str("response", resp.Choices[0].Message.Content).Msg("Error parsing prediction")
		return nil, err
	}

	c.logger.Debug().
		Float64("loan_limit", result.LoanLimit).
		Str("risk_category", result.RiskCategory).
		Msg("Prediction received")
	return result, nil
}

// rawPrediction accepts loanLimit both as a JSON number and as a numeric string
type rawPrediction struct {
	LoanLimit    *decimal.Decimal `json:"loanLimit"`
	RiskCategory string           `json:"riskCategory"`
}

func (c *Client) parsePrediction(content string) (*models.PredictionResult, error) {
	var raw rawPrediction
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.LoanLimit == nil {
		return nil, fmt.Errorf("%w: missing loanLimit", ErrMalformedResponse)
	}

	result := &models.PredictionResult{
		LoanLimit:    raw.LoanLimit.Round(2).InexactFloat64(),
		RiskCategory: strings.ToUpper(strings.TrimSpace(raw.RiskCategory)),
	}
	if err := c.validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return result, nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON replies in
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// FormatFeaturePrompt creates the user prompt for a feature summary
func FormatFeaturePrompt(features models.FeatureSummary) (string, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encoding features: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Transaction history summary (amounts in the account currency):\n")
	sb.WriteString(fmt.Sprintf("- total: %.2f\n", features.Total))
	sb.WriteString(fmt.Sprintf("- average: %.2f\n", features.Average))
	sb.WriteString(fmt.Sprintf("- frequency: %d transactions\n", features.Frequency))
	sb.WriteString(fmt.Sprintf("- largest transaction: %.2f\n", features.MaxTransaction))
	sb.WriteString(fmt.Sprintf("- standard deviation: %.2f\n", features.StdTransaction))
	sb.WriteString("\nFeatures as JSON:\n")
	sb.Write(payload)
	sb.WriteString("\n\nPredict loanLimit and riskCategory.")

	return sb.String(), nil
}
