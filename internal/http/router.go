package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/smartmilk/smart-milk/docs"
	"github.com/smartmilk/smart-milk/internal/http/handlers"
	mw "github.com/smartmilk/smart-milk/internal/http/middleware"
	rl "github.com/smartmilk/smart-milk/internal/http/rate_limiter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type RouterOptions struct {
	AllowedOrigins []string
	// Limiter guards /login and /register. Nil disables rate limiting.
	Limiter *rl.Limiter
	Logger  *zap.Logger
}

func NewRouter(api *handlers.API, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(opts.AllowedOrigins))

	r.Get("/", api.DashboardViewHandler)
	r.Get("/health", api.HealthHandler)
	r.Get("/health/db", api.DBHealthHandler)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(mw.RateLimitMiddleware(opts.Limiter))
		}
		r.Post("/register", api.RegisterHandler)
		r.Post("/login", api.LoginHandler)
	})
	r.Post("/logout", api.LogoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(api.Authenticator()))

		r.Get("/me", api.MeHandler)
		r.Put("/me", api.UpdateMeHandler)
		r.Post("/me/password", api.ChangePasswordHandler)
		r.Get("/settings/milk", api.GetMilkSettingsHandler)
		r.Put("/settings/milk", api.UpdateMilkSettingsHandler)
		r.Get("/users/{id}/email", api.GetUserEmailHandler)
		r.Get("/dashboard/status", api.GetDashboardStatusHandler)
		r.Post("/dashboard/status", api.PostDashboardStatusHandler)
	})

	return r
}
