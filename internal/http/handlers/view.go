package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/smartmilk/smart-milk/internal/models"
	"go.uber.org/zap"
)

//go:embed templates
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

type dashboardPage struct {
	LoggedIn       bool
	User           models.User
	PollIntervalMS int64
}

// DashboardViewHandler renders the dashboard page. Visitors without a valid
// session get the login form instead of the cards.
func (a *API) DashboardViewHandler(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{PollIntervalMS: a.pollInterval.Milliseconds()}

	if userID, err := a.auth.Authenticate(r); err == nil {
		if user, err := a.users.GetByID(r.Context(), userID); err == nil {
			page.LoggedIn = true
			page.User = user
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "dashboard.html", page); err != nil {
		a.logger.Error("render dashboard", zap.Error(err))
	}
}
