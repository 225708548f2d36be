package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alias1177/LoanPredictor/internal/cache"
	"github.com/Alias1177/LoanPredictor/internal/config"
	"github.com/Alias1177/LoanPredictor/internal/database"
	"github.com/Alias1177/LoanPredictor/internal/handler"
	"github.com/Alias1177/LoanPredictor/internal/predictor"
	"github.com/Alias1177/LoanPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Loan prediction server stopped")
	}
}

// run owns every resource so its defers execute before main exits
func run() error {
	// 1) Parse config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// 2) Set up the logger
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) Optional collaborators
	opts := handler.Options{
		Model:        cfg.PredictionModel,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}

	if cfg.RedisAddr != "" {
		predictionCache, err := cache.NewRedisCache(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
			Model:    cfg.PredictionModel,
		})
		if err != nil {
			return fmt.Errorf("initializing prediction cache: %w", err)
		}
		defer predictionCache.Close()
		opts.Cache = predictionCache
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("Prediction cache enabled")
	}

	if cfg.DBHost != "" {
		db, err := database.New(ctx, database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close()
		opts.Store = db
		log.Info().Str("host", cfg.DBHost).Str("dbname", cfg.DBName).Msg("Prediction audit store enabled")
	}

	// 4) The prediction model client is built lazily on the first request
	provider := predictor.NewProvider(predictor.NewFactory(cfg))
	predictHandler := handler.NewPredictHandler(provider, opts)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(predictHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Int("port", cfg.Port).
		Str("provider", cfg.PredictionProvider).
		Str("model", cfg.PredictionModel).
		Msg("Loan prediction server starting")
	return serve(ctx, server, cfg.ShutdownTimeout)
}

// serve runs server until ctx is cancelled or the listener fails, then shuts it down.
// A listener error is returned to the caller instead of exiting the process.
func serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func setupLogger(cfg *models.Config) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	}
	zerolog.DefaultContextLogger = &log.Logger
}
