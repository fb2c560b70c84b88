package handlers_integrated_test_suite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/smartmilk/smart-milk/internal/auth"
	"github.com/smartmilk/smart-milk/internal/config"
	"github.com/smartmilk/smart-milk/internal/dashboard"
	"github.com/smartmilk/smart-milk/internal/db"
	api "github.com/smartmilk/smart-milk/internal/http"
	handler "github.com/smartmilk/smart-milk/internal/http/handlers"
	rl "github.com/smartmilk/smart-milk/internal/http/rate_limiter"
	"github.com/smartmilk/smart-milk/internal/repo"
	"github.com/smartmilk/smart-milk/internal/session"
	"golang.org/x/crypto/bcrypt"
)

// testDatabaseEnv names the Postgres URL the suite runs against. The suite is
// skipped when it is unset.
const testDatabaseEnv = "SMARTMILK_TEST_DATABASE_URL"

var (
	database *sql.DB
	userRepo *repo.PostgresUserRepository
	limiter  *rl.Limiter
	router   http.Handler
)

func setup(url string) error {
	var err error
	database, err = db.Connect(config.DatabaseConfig{Driver: "postgres", URL: url, MaxOpenConns: 5})
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.MigratePostgres(ctx, database); err != nil {
		return err
	}

	userRepo = repo.NewPostgresUserRepository(database, 3*time.Second)
	deviceRepo := repo.NewPostgresDeviceRepository(database, 3*time.Second)
	authSvc := auth.NewService(userRepo, session.NewMemoryStore(), auth.NewTokenIssuer("integration-secret", time.Hour), time.Hour).
		WithBcryptCost(bcrypt.MinCost)
	limiter = rl.New(1, 5)

	router = api.NewRouter(handler.New(handler.Deps{
		Auth:    authSvc,
		Users:   userRepo,
		Deriver: dashboard.NewDeriver(userRepo, deviceRepo),
		DB:      database,
		Cookie:  handler.CookieConfig{Name: "sid", TTL: time.Hour},
	}), api.RouterOptions{Limiter: limiter})
	return nil
}

func clearAll() {
	limiter.CleanupAllVisitors()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := database.ExecContext(ctx, "TRUNCATE TABLE users, weight_data, device_stats RESTART IDENTITY CASCADE")
	if err != nil {
		fmt.Println(fmt.Errorf("failed to truncate tables: %w", err))
	}
}

func doJSON(method, path string, payload any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func registerAndLogin(username, password string) (int, string, error) {
	w := doJSON(http.MethodPost, "/register", handler.RegisterRequest{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
	if w.Code != http.StatusCreated {
		return 0, "", fmt.Errorf("register returned %d: %s", w.Code, w.Body.String())
	}
	var reg handler.RegisterResult
	if err := json.NewDecoder(w.Body).Decode(&reg); err != nil {
		return 0, "", err
	}

	w = doJSON(http.MethodPost, "/login", handler.CredentialsRequest{Username: username, Password: password})
	var resp handler.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		return 0, "", fmt.Errorf("token decoding failed: %v", err)
	}
	return reg.UserID, resp.Token, nil
}

func addSample(deviceID string, weight float64, ts time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := database.ExecContext(ctx,
		`INSERT INTO weight_data (device_id, weight, timestamp) VALUES ($1, $2, $3)`, deviceID, weight, ts)
	return err
}

func putStats(deviceID string, avg, pct, cups float64, emptyOn time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := database.ExecContext(ctx, `
		INSERT INTO device_stats (device_id, avg_daily_consumption_g, percent_full, cups_left, expected_empty_date)
		VALUES ($1, $2, $3, $4, $5)`, deviceID, avg, pct, cups, emptyOn)
	return err
}
