package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"financial_forecast/pkg/core/pipeline"
)

// ForecastRepo stores completed forecasts and request-level error records,
// keyed by request ID. It implements pipeline.ForecastRepository.
type ForecastRepo struct{}

// NewForecastRepo creates a new repository instance.
func NewForecastRepo() *ForecastRepo {
	return &ForecastRepo{}
}

var _ pipeline.ForecastRepository = (*ForecastRepo)(nil)

// SaveForecast persists a completed forecast as a JSONB blob. Upsert on
// request_id keeps the operation idempotent for retried persistence.
func (r *ForecastRepo) SaveForecast(ctx context.Context, f *pipeline.Forecast) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal forecast: %w", err)
	}

	query := `
		INSERT INTO forecast_logs (request_id, company, forecast_data)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id)
		DO UPDATE SET forecast_data = EXCLUDED.forecast_data;
	`

	if _, err := pool.Exec(ctx, query, f.RequestID, f.Company, jsonData); err != nil {
		return fmt.Errorf("failed to save forecast: %w", err)
	}
	return nil
}

// LogError records a request-level failure.
func (r *ForecastRepo) LogError(ctx context.Context, requestID string, message string) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `INSERT INTO error_logs (request_id, error_message) VALUES ($1, $2)`
	if _, err := pool.Exec(ctx, query, requestID, message); err != nil {
		return fmt.Errorf("failed to log error: %w", err)
	}
	return nil
}

// ForecastRecord is one row of forecast history.
type ForecastRecord struct {
	RequestID string          `json:"request_id"`
	Company   string          `json:"company"`
	Forecast  json.RawMessage `json:"forecast"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecentForecasts returns the most recent forecasts, newest first.
func (r *ForecastRepo) RecentForecasts(ctx context.Context, limit int) ([]ForecastRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT request_id, company, forecast_data, created_at
		FROM forecast_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var records []ForecastRecord
	for rows.Next() {
		var rec ForecastRecord
		if err := rows.Scan(&rec.RequestID, &rec.Company, &rec.Forecast, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
