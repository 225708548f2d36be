package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "loanpredict"

// RedisCache stores predictions keyed by the feature summary they were made for
type RedisCache struct {
	client *redis.Client
	model  string
	ttl    time.Duration
	logger zerolog.Logger
}

// Options holds Redis connection settings
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Model    string
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, opts Options) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("couldn't connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		model:  opts.Model,
		ttl:    opts.TTL,
		logger: log.With().Str("component", "prediction_cache").Logger(),
	}, nil
}

// Get returns a cached prediction. Any Redis or decoding error counts as a miss.
func (c *RedisCache) Get(ctx context.Context, features models.FeatureSummary) (*models.PredictionResult, bool) {
	key, err := c.key(features)
	if err != nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("Cache read failed")
		}
		return nil, false
	}

	var result models.PredictionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return nil, false
	}
	return &result, true
}

// Set stores a prediction for the configured TTL
func (c *RedisCache) Set(ctx context.Context, features models.FeatureSummary, result models.PredictionResult) error {
	key, err := c.key(features)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding prediction: %w", err)
	}

	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Close releases the Redis connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// key is the prefix, model name and a blake2b-256 digest of the canonical JSON summary
func (c *RedisCache) key(features models.FeatureSummary) (string, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encoding features: %w", err)
	}
	sum := blake2b.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s", keyPrefix, c.model, hex.EncodeToString(sum[:])), nil
}
