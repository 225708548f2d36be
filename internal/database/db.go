package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// MaxConnectTime bounds how long startup keeps retrying the initial ping
	MaxConnectTime time.Duration
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	wrapped, err := open(ctx, db, params.MaxConnectTime)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return wrapped, nil
}

func open(ctx context.Context, db *sql.DB, maxConnectTime time.Duration) (*DB, error) {
	if maxConnectTime == 0 {
		maxConnectTime = 30 * time.Second
	}

	// The database may still be starting next to us; retry the ping with exponential backoff
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = maxConnectTime

	ping := func() error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("Database not reachable yet")
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS loan_predictions (
			id UUID PRIMARY KEY,
			request_id TEXT NOT NULL,
			model TEXT NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			average DOUBLE PRECISION NOT NULL,
			frequency INTEGER NOT NULL,
			max_transaction DOUBLE PRECISION NOT NULL,
			std_transaction DOUBLE PRECISION NOT NULL,
			loan_limit DOUBLE PRECISION NOT NULL,
			risk_category TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// SavePrediction stores the audit record of a served prediction
func (db *DB) SavePrediction(ctx context.Context, record models.PredictionRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO loan_predictions (
			id, request_id, model, total, average, frequency,
			max_transaction, std_transaction, loan_limit, risk_category, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		record.ID.String(), record.RequestID, record.Model,
		record.Features.Total, record.Features.Average, record.Features.Frequency,
		record.Features.MaxTransaction, record.Features.StdTransaction,
		record.Result.LoanLimit, record.Result.RiskCategory, record.CreatedAt)

	return err
}
