package models

import "time"

// Sample is one weight reading reported by a device sensor.
type Sample struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	DeviceID  string    `json:"device_id" gorm:"size:128;not null;index:idx_weight_device_ts,priority:1"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_weight_device_ts,priority:2"`
}

func (Sample) TableName() string {
	return "weight_data"
}
