package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
)

type PostgresDeviceRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresDeviceRepository(db *sql.DB, queryTimeout time.Duration) *PostgresDeviceRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PostgresDeviceRepository{db: db, timeout: queryTimeout}
}

func (r *PostgresDeviceRepository) LatestSample(ctx context.Context, deviceID string) (models.Sample, error) {
	query := `SELECT id, device_id, weight, timestamp FROM weight_data
		WHERE device_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return scanSample(r.db.QueryRowContext(ctx, query, deviceID))
}

func (r *PostgresDeviceRepository) SampleAtOrBefore(ctx context.Context, deviceID string, t time.Time) (models.Sample, error) {
	query := `SELECT id, device_id, weight, timestamp FROM weight_data
		WHERE device_id = $1 AND timestamp <= $2
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return scanSample(r.db.QueryRowContext(ctx, query, deviceID, t))
}

func (r *PostgresDeviceRepository) Stats(ctx context.Context, deviceID string) (models.DeviceStats, error) {
	query := `SELECT device_id, current_amount_g, avg_daily_consumption_g, cups_left, percent_full, expected_empty_date, expiry_date
		FROM device_stats
		WHERE device_id = $1`
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		s                        models.DeviceStats
		current, avg, cups, pct  sql.NullFloat64
		expectedEmpty, expiresOn sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, deviceID).
		Scan(&s.DeviceID, &current, &avg, &cups, &pct, &expectedEmpty, &expiresOn)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeviceStats{}, ErrStatsNotFound
	}
	if err != nil {
		return models.DeviceStats{}, err
	}

	s.CurrentAmount = floatPtr(current)
	s.AvgDailyConsumption = floatPtr(avg)
	s.CupsLeft = floatPtr(cups)
	s.PercentFull = floatPtr(pct)
	s.ExpectedEmptyDate = timePtr(expectedEmpty)
	s.ExpiryDate = timePtr(expiresOn)
	return s, nil
}

func scanSample(row *sql.Row) (models.Sample, error) {
	var s models.Sample
	err := row.Scan(&s.ID, &s.DeviceID, &s.Weight, &s.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sample{}, ErrSampleNotFound
	}
	return s, err
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
