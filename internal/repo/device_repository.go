package repo

import (
	"context"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
)

// DeviceRepository is the read side of the sensor tables.
type DeviceRepository interface {
	// LatestSample returns the newest sample of the device or ErrSampleNotFound.
	LatestSample(ctx context.Context, deviceID string) (models.Sample, error)
	// SampleAtOrBefore returns the newest sample taken at or before t or ErrSampleNotFound.
	SampleAtOrBefore(ctx context.Context, deviceID string, t time.Time) (models.Sample, error)
	// Stats returns the statistics row of the device or ErrStatsNotFound.
	Stats(ctx context.Context, deviceID string) (models.DeviceStats, error)
}
