package handlers

import (
	"errors"
	"net/http"

	"github.com/smartmilk/smart-milk/internal/dashboard"
	"github.com/smartmilk/smart-milk/internal/http/middleware"
	"go.uber.org/zap"
)

// GetDashboardStatusHandler godoc
// @Summary Dashboard payload for the logged-in user
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dashboard.Payload
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "User or device not found"
// @Failure 500 {string} string "Store error"
// @Router /dashboard/status [get]
func (a *API) GetDashboardStatusHandler(w http.ResponseWriter, r *http.Request) {
	a.writeStatus(w, r, middleware.GetUserID(r))
}

// PostDashboardStatusHandler godoc
// @Summary Dashboard payload for a user id
// @Description Non-admin callers may only ask for themselves.
// @Tags dashboard
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body DashboardStatusRequest true "user id"
// @Success 200 {object} dashboard.Payload
// @Failure 400 {string} string "Invalid user id"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "User or device not found"
// @Failure 500 {string} string "Store error"
// @Router /dashboard/status [post]
func (a *API) PostDashboardStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req DashboardStatusRequest
	if err := readJSON(w, r, &req); err != nil || req.UserID == nil {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	if *req.UserID <= 0 {
		http.Error(w, "userId must be a positive integer", http.StatusBadRequest)
		return
	}

	callerID := middleware.GetUserID(r)
	if *req.UserID != callerID {
		caller, ok := a.currentUser(w, r)
		if !ok {
			return
		}
		if !caller.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}
	a.writeStatus(w, r, *req.UserID)
}

func (a *API) writeStatus(w http.ResponseWriter, r *http.Request, userID int) {
	payload, err := a.deriver.Status(r.Context(), userID)

	var (
		verr  *dashboard.ValidationError
		nferr *dashboard.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.As(err, &nferr):
		http.Error(w, nferr.Error(), http.StatusNotFound)
	case err != nil:
		a.logger.Error("dashboard status", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
	default:
		a.respond(w, http.StatusOK, payload)
	}
}
