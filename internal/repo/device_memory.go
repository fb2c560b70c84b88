package repo

import (
	"context"
	"sync"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
)

type InMemoryDeviceRepository struct {
	mu      sync.RWMutex
	samples []models.Sample
	stats   map[string]models.DeviceStats
}

func NewInMemoryDeviceRepository() *InMemoryDeviceRepository {
	return &InMemoryDeviceRepository{
		samples: []models.Sample{},
		stats:   map[string]models.DeviceStats{},
	}
}

// AddSample appends a reading. Ingestion happens outside this service, so it is
// only used to seed data.
func (r *InMemoryDeviceRepository) AddSample(deviceID string, weight float64, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, models.Sample{
		ID:        int64(len(r.samples) + 1),
		DeviceID:  deviceID,
		Weight:    weight,
		Timestamp: ts,
	})
}

func (r *InMemoryDeviceRepository) PutStats(s models.DeviceStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[s.DeviceID] = s
}

func (r *InMemoryDeviceRepository) LatestSample(_ context.Context, deviceID string) (models.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newest(deviceID, nil)
}

func (r *InMemoryDeviceRepository) SampleAtOrBefore(_ context.Context, deviceID string, t time.Time) (models.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newest(deviceID, &t)
}

func (r *InMemoryDeviceRepository) Stats(_ context.Context, deviceID string) (models.DeviceStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stats[deviceID]
	if !ok {
		return models.DeviceStats{}, ErrStatsNotFound
	}
	return s, nil
}

func (r *InMemoryDeviceRepository) newest(deviceID string, until *time.Time) (models.Sample, error) {
	var (
		found  bool
		latest models.Sample
	)
	for _, s := range r.samples {
		if s.DeviceID != deviceID {
			continue
		}
		if until != nil && s.Timestamp.After(*until) {
			continue
		}
		// Later insertion wins a timestamp tie.
		if !found || !s.Timestamp.Before(latest.Timestamp) {
			latest = s
			found = true
		}
	}
	if !found {
		return models.Sample{}, ErrSampleNotFound
	}
	return latest, nil
}

func (r *InMemoryDeviceRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = []models.Sample{}
	r.stats = map[string]models.DeviceStats{}
}
