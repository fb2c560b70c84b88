package models

import "time"

// DeviceStats is the aggregate row refreshed by the statistics job.
// Every data column may be NULL until the job has seen enough samples.
type DeviceStats struct {
	DeviceID            string     `json:"device_id" gorm:"primaryKey;size:128"`
	CurrentAmount       *float64   `json:"current_amount_g" gorm:"column:current_amount_g"`
	AvgDailyConsumption *float64   `json:"avg_daily_consumption_g" gorm:"column:avg_daily_consumption_g"`
	CupsLeft            *float64   `json:"cups_left"`
	PercentFull         *float64   `json:"percent_full"`
	ExpectedEmptyDate   *time.Time `json:"expected_empty_date" gorm:"type:date"`
	ExpiryDate          *time.Time `json:"expiry_date" gorm:"type:date"`
}

func (DeviceStats) TableName() string {
	return "device_stats"
}
