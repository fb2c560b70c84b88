package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/smartmilk/smart-milk/internal/auth"
	"github.com/smartmilk/smart-milk/internal/http/middleware"
	"github.com/smartmilk/smart-milk/internal/models"
	"github.com/smartmilk/smart-milk/internal/repo"
	"go.uber.org/zap"
)

// currentUser loads the authenticated caller, writing the error response itself
// when it fails.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, err := a.users.GetByID(r.Context(), middleware.GetUserID(r))
	if errors.Is(err, repo.ErrUserNotFound) {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return models.User{}, false
	}
	if err != nil {
		a.logger.Error("load current user", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return models.User{}, false
	}
	return user, true
}

// MeHandler godoc
// @Summary Profile of the logged-in user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /me [get]
func (a *API) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	a.respond(w, http.StatusOK, toUserResponse(user))
}

// UpdateMeHandler godoc
// @Summary Update email and full name of the logged-in user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param profile body UpdateProfileRequest true "fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {string} string "Invalid input"
// @Failure 401 {string} string "Unauthorized"
// @Failure 409 {string} string "Email already in use"
// @Router /me [put]
func (a *API) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := auth.ValidateEmail(email); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Email = email
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}

	updated, err := a.users.Update(r.Context(), user)
	if errors.Is(err, repo.ErrDuplicatedValueUnique) {
		http.Error(w, "email already in use", http.StatusConflict)
		return
	}
	if err != nil {
		a.logger.Error("update profile", zap.Error(err))
		http.Error(w, "could not update profile", http.StatusInternalServerError)
		return
	}
	a.respond(w, http.StatusOK, toUserResponse(updated))
}

// ChangePasswordHandler godoc
// @Summary Change the password of the logged-in user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Param passwords body ChangePasswordRequest true "current and new password"
// @Success 204
// @Failure 400 {string} string "Invalid input"
// @Failure 401 {string} string "Wrong current password"
// @Router /me/password [post]
func (a *API) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	err := a.auth.ChangePassword(r.Context(), middleware.GetUserID(r), req.CurrentPassword, req.NewPassword)
	var verr auth.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, "current password is wrong", http.StatusUnauthorized)
	case errors.Is(err, repo.ErrUserNotFound):
		http.Error(w, "not authenticated", http.StatusUnauthorized)
	case err != nil:
		a.logger.Error("change password", zap.Error(err))
		http.Error(w, "could not change password", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetMilkSettingsHandler godoc
// @Summary Device and alert threshold of the logged-in user
// @Tags settings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MilkSettings
// @Failure 401 {string} string "Unauthorized"
// @Router /settings/milk [get]
func (a *API) GetMilkSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	a.respond(w, http.StatusOK, MilkSettings{DeviceID: user.DeviceID, ThresholdWanted: user.AlertThreshold})
}

// UpdateMilkSettingsHandler godoc
// @Summary Set device and alert threshold of the logged-in user
// @Tags settings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param settings body MilkSettings true "device id and threshold in grams"
// @Success 200 {object} MilkSettings
// @Failure 400 {array} FieldError
// @Failure 401 {string} string "Unauthorized"
// @Router /settings/milk [put]
func (a *API) UpdateMilkSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req MilkSettings
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if errs := validateMilkSettings(req); len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, errs)
		return
	}

	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	user.DeviceID = strings.TrimSpace(req.DeviceID)
	user.AlertThreshold = req.ThresholdWanted

	updated, err := a.users.Update(r.Context(), user)
	if err != nil {
		a.logger.Error("update milk settings", zap.Error(err))
		http.Error(w, "could not update settings", http.StatusInternalServerError)
		return
	}
	a.respond(w, http.StatusOK, MilkSettings{DeviceID: updated.DeviceID, ThresholdWanted: updated.AlertThreshold})
}

// GetUserEmailHandler godoc
// @Summary Email of a user (self or admin only)
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} EmailResponse
// @Failure 400 {string} string "Invalid ID"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "Not found"
// @Router /users/{id}/email [get]
func (a *API) GetUserEmailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	caller, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if caller.ID != id && !caller.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	user, err := a.users.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.logger.Error("load user email", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	a.respond(w, http.StatusOK, EmailResponse{Email: user.Email})
}
