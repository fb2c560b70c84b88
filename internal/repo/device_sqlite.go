package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
	"gorm.io/gorm"
)

type SQLiteDeviceRepository struct {
	db *gorm.DB
}

func NewSQLiteDeviceRepository(db *gorm.DB) *SQLiteDeviceRepository {
	return &SQLiteDeviceRepository{db: db}
}

func (r *SQLiteDeviceRepository) LatestSample(ctx context.Context, deviceID string) (models.Sample, error) {
	return r.newest(r.db.WithContext(ctx).Where("device_id = ?", deviceID))
}

func (r *SQLiteDeviceRepository) SampleAtOrBefore(ctx context.Context, deviceID string, t time.Time) (models.Sample, error) {
	return r.newest(r.db.WithContext(ctx).Where("device_id = ? AND timestamp <= ?", deviceID, t.UTC()))
}

func (r *SQLiteDeviceRepository) Stats(ctx context.Context, deviceID string) (models.DeviceStats, error) {
	var s models.DeviceStats
	tx := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&s)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return models.DeviceStats{}, ErrStatsNotFound
	}
	if tx.Error != nil {
		return models.DeviceStats{}, fmt.Errorf("tx.Error: %w", tx.Error)
	}
	return s, nil
}

// AddSample inserts a reading. Used by seeding and tests.
func (r *SQLiteDeviceRepository) AddSample(ctx context.Context, s models.Sample) error {
	s.Timestamp = s.Timestamp.UTC()
	if tx := r.db.WithContext(ctx).Create(&s); tx.Error != nil {
		return fmt.Errorf("tx.Error: %w", tx.Error)
	}
	return nil
}

// PutStats upserts the statistics row of a device. Used by seeding and tests.
func (r *SQLiteDeviceRepository) PutStats(ctx context.Context, s models.DeviceStats) error {
	if tx := r.db.WithContext(ctx).Save(&s); tx.Error != nil {
		return fmt.Errorf("tx.Error: %w", tx.Error)
	}
	return nil
}

func (r *SQLiteDeviceRepository) newest(q *gorm.DB) (models.Sample, error) {
	var s models.Sample
	tx := q.Order("timestamp DESC").Order("id DESC").First(&s)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return models.Sample{}, ErrSampleNotFound
	}
	if tx.Error != nil {
		return models.Sample{}, fmt.Errorf("tx.Error: %w", tx.Error)
	}
	return s, nil
}
