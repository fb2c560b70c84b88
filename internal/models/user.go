package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account of the service. Several users may share one DeviceID.
type User struct {
	ID             int       `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	FullName       string    `json:"full_name,omitempty" gorm:"size:255"`
	Role           string    `json:"role" gorm:"size:20;not null;default:user"`
	DeviceID       string    `json:"device_id,omitempty" gorm:"size:128;index"`
	AlertThreshold *int      `json:"alert_threshold_g,omitempty" gorm:"column:alert_threshold_g"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
