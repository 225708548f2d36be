package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/LoanPredictor/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRetriesPingThenCreatesTables(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS loan_predictions").WillReturnResult(sqlmock.NewResult(0, 0))

	wrapped, err := open(context.Background(), db, 5*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, wrapped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenGivesUpAfterMaxConnectTime(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 20; i++ {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	}

	_, err = open(context.Background(), db, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to database")
}

func TestSavePrediction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := models.PredictionRecord{
		ID:        uuid.New(),
		RequestID: "req-1",
		Model:     "gemini-1.5-flash",
		Features:  models.FeatureSummary{Total: 600, Average: 200, Frequency: 3, MaxTransaction: 300, StdTransaction: 81.6496580927726},
		Result:    models.PredictionResult{LoanLimit: 1500, RiskCategory: models.RiskLow},
		CreatedAt: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO loan_predictions").
		WithArgs(record.ID.String(), "req-1", "gemini-1.5-flash",
			600.0, 200.0, 3, 300.0, 81.6496580927726, 1500.0, "LOW", record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, (&DB{db}).SavePrediction(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}
