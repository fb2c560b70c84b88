package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartmilk/smart-milk/internal/auth"
	"github.com/smartmilk/smart-milk/internal/dashboard"
	api "github.com/smartmilk/smart-milk/internal/http"
	"github.com/smartmilk/smart-milk/internal/http/handlers"
	rl "github.com/smartmilk/smart-milk/internal/http/rate_limiter"
	"github.com/smartmilk/smart-milk/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout       = 10 * time.Second
	memoryCleanupInterval = 5 * time.Minute
	visitorCleanupEvery   = time.Minute
	visitorIdleAfter      = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, e.g. :8080")
	mustBind("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.File, cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStores(cfg.Database)
	if err != nil {
		log.Error("could not connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		return err
	}
	defer st.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg, log)
	if err != nil {
		log.Error("could not open session store", zap.Error(err))
		return err
	}
	defer closeSessions()

	authSvc := auth.NewService(st.users, sessions, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Session.TTL).
		WithCookieName(cfg.Session.CookieName)
	deriver := dashboard.NewDeriver(st.users, st.devices, dashboard.WithCupSize(cfg.Dashboard.CupSize))

	limiter := rl.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.StartVisitorCleanupLoop(ctx, visitorCleanupEvery, visitorIdleAfter)

	handler := api.NewRouter(handlers.New(handlers.Deps{
		Auth:    authSvc,
		Users:   st.users,
		Deriver: deriver,
		DB:      st.sqlDB,
		Logger:  log,
		Cookie: handlers.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		},
		PollInterval: cfg.Dashboard.PollInterval,
	}), api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Limiter:        limiter,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server running", zap.String("addr", cfg.Server.Addr), zap.String("db", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
