package handlers

import (
	"context"
	"time"

	"github.com/smartmilk/smart-milk/internal/auth"
	"github.com/smartmilk/smart-milk/internal/dashboard"
	"github.com/smartmilk/smart-milk/internal/repo"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// API holds everything the handlers need. Build it with New.
type API struct {
	auth         *auth.Service
	users        repo.UserRepository
	deriver      *dashboard.Deriver
	db           Pinger
	logger       *zap.Logger
	cookie       CookieConfig
	pollInterval time.Duration
}

type Deps struct {
	Auth         *auth.Service
	Users        repo.UserRepository
	Deriver      *dashboard.Deriver
	DB           Pinger
	Logger       *zap.Logger
	Cookie       CookieConfig
	PollInterval time.Duration
}

func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cookie.Name == "" {
		d.Cookie.Name = auth.DefaultCookieName
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 30 * time.Second
	}
	return &API{
		auth:         d.Auth,
		users:        d.Users,
		deriver:      d.Deriver,
		db:           d.DB,
		logger:       d.Logger,
		cookie:       d.Cookie,
		pollInterval: d.PollInterval,
	}
}

// Authenticator exposes the auth service to the router's middleware.
func (a *API) Authenticator() *auth.Service {
	return a.auth
}
