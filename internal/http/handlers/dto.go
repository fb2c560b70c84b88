package handlers

import "github.com/smartmilk/smart-milk/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

type RegisterResult struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
	DeviceID string `json:"device_id,omitempty"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		DeviceID: u.DeviceID,
	}
}

type UpdateProfileRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type MilkSettings struct {
	DeviceID        string `json:"device_id"`
	ThresholdWanted *int   `json:"threshold_wanted"`
}

type EmailResponse struct {
	Email string `json:"email"`
}

// DashboardStatusRequest is the body of POST /dashboard/status.
type DashboardStatusRequest struct {
	UserID *int `json:"userId"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
