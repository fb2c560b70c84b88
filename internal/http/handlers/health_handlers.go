package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const dbPingTimeout = 2 * time.Second

// HealthHandler godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.respond(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// DBHealthHandler godoc
// @Summary Store connectivity probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {string} string "Database unavailable"
// @Router /health/db [get]
func (a *API) DBHealthHandler(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		a.respond(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Warn("database ping failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	a.respond(w, http.StatusOK, HealthResponse{Status: "ok"})
}
