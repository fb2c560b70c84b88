package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartmilk/smart-milk/internal/auth"
	"github.com/smartmilk/smart-milk/internal/dashboard"
	api "github.com/smartmilk/smart-milk/internal/http"
	"github.com/smartmilk/smart-milk/internal/http/handlers"
	rl "github.com/smartmilk/smart-milk/internal/http/rate_limiter"
	"github.com/smartmilk/smart-milk/internal/models"
	"github.com/smartmilk/smart-milk/internal/repo"
	"github.com/smartmilk/smart-milk/internal/session"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type testServer struct {
	router  http.Handler
	users   *repo.InMemoryUserRepository
	devices *repo.InMemoryDeviceRepository
	authSvc *auth.Service
	db      *fakePinger
}

type fakePinger struct{ err error }

func (p *fakePinger) PingContext(context.Context) error { return p.err }

// newTestServer wires the router over in-memory stores. wrapDevices, when
// given, decorates the device repository seen by the deriver.
func newTestServer(t *testing.T, limiter *rl.Limiter, wrapDevices ...func(repo.DeviceRepository) repo.DeviceRepository) *testServer {
	t.Helper()
	users := repo.NewInMemoryUserRepository()
	devices := repo.NewInMemoryDeviceRepository()
	authSvc := auth.NewService(users, session.NewMemoryStore(), auth.NewTokenIssuer("test-secret", time.Hour), time.Hour).
		WithBcryptCost(bcrypt.MinCost)

	var deviceRepo repo.DeviceRepository = devices
	for _, wrap := range wrapDevices {
		deviceRepo = wrap(deviceRepo)
	}
	deriver := dashboard.NewDeriver(users, deviceRepo, dashboard.WithClock(func() time.Time { return testNow }))
	pinger := &fakePinger{}

	a := handlers.New(handlers.Deps{
		Auth:    authSvc,
		Users:   users,
		Deriver: deriver,
		DB:      pinger,
		Cookie:  handlers.CookieConfig{Name: "sid", TTL: time.Hour},
	})
	return &testServer{
		router:  api.NewRouter(a, api.RouterOptions{Limiter: limiter, AllowedOrigins: []string{"http://localhost:5173"}}),
		users:   users,
		devices: devices,
		authSvc: authSvc,
		db:      pinger,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// register creates a user and returns its id.
func (s *testServer) register(t *testing.T, username, password string) int {
	t.Helper()
	w := s.do(jsonRequest(http.MethodPost, "/register", handlers.RegisterRequest{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, w.Code, w.Body.String())
	}
	var res handlers.RegisterResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("error decoding register response: %v", err)
	}
	return res.UserID
}

// login returns the session cookie and bearer token.
func (s *testServer) login(t *testing.T, username, password string) (*http.Cookie, string) {
	t.Helper()
	w := s.do(jsonRequest(http.MethodPost, "/login", handlers.CredentialsRequest{Username: username, Password: password}))
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, w.Code, w.Body.String())
	}
	var res handlers.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("error decoding login response: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" {
			return c, res.Token
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil, ""
}

func (s *testServer) setDevice(t *testing.T, userID int, deviceID string, threshold *int) {
	t.Helper()
	u, err := s.users.GetByID(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	u.DeviceID = deviceID
	u.AlertThreshold = threshold
	if _, err := s.users.Update(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func (s *testServer) makeAdmin(t *testing.T, userID int) {
	t.Helper()
	u, err := s.users.GetByID(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	u.Role = models.RoleAdmin
	if _, err := s.users.Update(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func TestHealthHandlers(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/health/db", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health/db, got %d", w.Code)
	}

	s.db.err = errors.New("connection refused")
	w = s.do(httptest.NewRequest(http.MethodGet, "/health/db", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when the database is down, got %d", w.Code)
	}
}

func TestRegisterHandler(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice", "secret1")

	tests := []struct {
		name       string
		body       string
		expectCode int
	}{
		{"duplicate username", `{"username":"alice","password":"secret1","email":"other@example.com"}`, http.StatusConflict},
		{"duplicate email", `{"username":"alice2","password":"secret1","email":"ALICE@example.com"}`, http.StatusConflict},
		{"short password", `{"username":"bob","password":"123","email":"bob@example.com"}`, http.StatusBadRequest},
		{"bad email", `{"username":"bob","password":"secret1","email":"bob"}`, http.StatusBadRequest},
		{"bad username", `{"username":"b","password":"secret1","email":"bob@example.com"}`, http.StatusBadRequest},
		{"malformed json", `{username: "bob"`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			w := s.do(req)
			if w.Code != tt.expectCode {
				t.Errorf("expected status %d, got %d: %s", tt.expectCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginLogout(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice", "secret1")

	w := s.do(jsonRequest(http.MethodPost, "/login", handlers.CredentialsRequest{Username: "alice", Password: "nope"}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}
	if w.Body.String() != "invalid credentials\n" {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	cookie, _ := s.login(t, "alice", "secret1")
	if !cookie.HttpOnly {
		t.Error("expected the session cookie to be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	if w := s.do(req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /me with session, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from /logout, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	if w := s.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", w.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, rl.New(0.001, 2))
	body := handlers.CredentialsRequest{Username: "ghost", Password: "whatever"}

	for i := 0; i < 2; i++ {
		if w := s.do(jsonRequest(http.MethodPost, "/login", body)); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}
	if w := s.do(jsonRequest(http.MethodPost, "/login", body)); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the burst is spent, got %d", w.Code)
	}
}

func TestMeHandlers(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice", "secret1")
	_, token := s.login(t, "alice", "secret1")

	if w := s.do(httptest.NewRequest(http.MethodGet, "/me", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}

	req := jsonRequest(http.MethodPut, "/me", map[string]string{"email": "Alice@Milk.io", "full_name": "Alice A."})
	req.Header.Set("Authorization", "Bearer "+token)
	w := s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me handlers.UserResponse
	if err := json.NewDecoder(w.Body).Decode(&me); err != nil {
		t.Fatal(err)
	}
	if me.Email != "alice@milk.io" || me.FullName != "Alice A." {
		t.Errorf("profile not updated: %+v", me)
	}

	req = jsonRequest(http.MethodPost, "/me/password", handlers.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "another1"})
	req.Header.Set("Authorization", "Bearer "+token)
	if w := s.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", w.Code)
	}

	req = jsonRequest(http.MethodPost, "/me/password", handlers.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "another1"})
	req.Header.Set("Authorization", "Bearer "+token)
	if w := s.do(req); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	s.login(t, "alice", "another1")
}

func TestMilkSettings(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice", "secret1")
	cookie, _ := s.login(t, "alice", "secret1")

	tests := []struct {
		name       string
		body       string
		expectCode int
	}{
		{"threshold too low", `{"device_id":"dev-1","threshold_wanted":0}`, http.StatusBadRequest},
		{"threshold too high", `{"device_id":"dev-1","threshold_wanted":100001}`, http.StatusBadRequest},
		{"bad device id", `{"device_id":"dev 1"}`, http.StatusBadRequest},
		{"valid", `{"device_id":"dev-1","threshold_wanted":250}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/settings/milk", strings.NewReader(tt.body))
			req.AddCookie(cookie)
			if w := s.do(req); w.Code != tt.expectCode {
				t.Errorf("expected %d, got %d: %s", tt.expectCode, w.Code, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/settings/milk", nil)
	req.AddCookie(cookie)
	w := s.do(req)
	var got handlers.MilkSettings
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.DeviceID != "dev-1" || got.ThresholdWanted == nil || *got.ThresholdWanted != 250 {
		t.Errorf("unexpected settings %+v", got)
	}
}

func TestGetUserEmailHandler(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID := s.register(t, "alice", "secret1")
	bobID := s.register(t, "bob", "secret1")
	_, aliceToken := s.login(t, "alice", "secret1")

	get := func(id int, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/users/%d/email", id), nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return s.do(req)
	}

	w := get(aliceID, aliceToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for own email, got %d", w.Code)
	}
	var res handlers.EmailResponse
	_ = json.NewDecoder(w.Body).Decode(&res)
	if res.Email != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %q", res.Email)
	}

	if w := get(bobID, aliceToken); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another user's email, got %d", w.Code)
	}

	s.makeAdmin(t, aliceID)
	if w := get(bobID, aliceToken); w.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", w.Code)
	}
	if w := get(999, aliceToken); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestDashboardStatus(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID := s.register(t, "alice", "secret1")
	bobID := s.register(t, "bob", "secret1")
	cookie, _ := s.login(t, "alice", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/dashboard/status", nil)
	req.AddCookie(cookie)
	if w := s.do(req); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 while no device is linked, got %d", w.Code)
	}

	s.setDevice(t, aliceID, "dev-1", nil)
	emptyOn := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	s.devices.AddSample("dev-1", 450, testNow.Add(-time.Minute))
	pct, avg, cups := 45.0, 150.0, 2.0
	s.devices.PutStats(models.DeviceStats{
		DeviceID:            "dev-1",
		PercentFull:         &pct,
		AvgDailyConsumption: &avg,
		CupsLeft:            &cups,
		ExpectedEmptyDate:   &emptyOn,
	})

	req = httptest.NewRequest(http.MethodGet, "/dashboard/status", nil)
	req.AddCookie(cookie)
	w := s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	expected := map[string]any{
		"currentMilkAmount":       450.0,
		"percentFull":             45.0,
		"coffeeCupsLeft":          2.0,
		"averageDailyConsumption": 150.0,
		"expectedMilkEndDay":      "2025-03-12",
		"isWeightSensorActive":    true,
	}
	for k, v := range expected {
		if body[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, body[k])
		}
	}
	if _, ok := body["lastUpdated"].(string); !ok {
		t.Errorf("expected lastUpdated timestamp, got %v", body["lastUpdated"])
	}

	tests := []struct {
		name       string
		body       string
		expectCode int
	}{
		{"own id", fmt.Sprintf(`{"userId":%d}`, aliceID), http.StatusOK},
		{"missing id", `{}`, http.StatusBadRequest},
		{"non numeric id", `{"userId":"abc"}`, http.StatusBadRequest},
		{"other user", fmt.Sprintf(`{"userId":%d}`, bobID), http.StatusForbidden},
		{"zero id", `{"userId":0}`, http.StatusBadRequest},
		{"negative id", `{"userId":-3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/dashboard/status", strings.NewReader(tt.body))
			req.AddCookie(cookie)
			if w := s.do(req); w.Code != tt.expectCode {
				t.Errorf("expected %d, got %d: %s", tt.expectCode, w.Code, w.Body.String())
			}
		})
	}

	s.makeAdmin(t, aliceID)
	for _, tc := range []struct {
		id   int
		code int
	}{{bobID, http.StatusNotFound}, {999, http.StatusNotFound}, {0, http.StatusBadRequest}} {
		req := httptest.NewRequest(http.MethodPost, "/dashboard/status", strings.NewReader(fmt.Sprintf(`{"userId":%d}`, tc.id)))
		req.AddCookie(cookie)
		if w := s.do(req); w.Code != tc.code {
			t.Errorf("admin asking for %d: expected %d, got %d", tc.id, tc.code, w.Code)
		}
	}
}

func TestDashboardView(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice", "secret1")

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `id="login"`) {
		t.Error("expected the login form for anonymous visitors")
	}

	cookie, _ := s.login(t, "alice", "secret1")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	if !strings.Contains(w.Body.String(), "/dashboard/status") {
		t.Error("expected the dashboard to poll /dashboard/status")
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Error("expected the username in the header")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := s.do(req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected allow-origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	if got := s.do(req).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin for unknown origin, got %q", got)
	}
}

type failingStats struct {
	repo.DeviceRepository
}

func (failingStats) Stats(context.Context, string) (models.DeviceStats, error) {
	return models.DeviceStats{}, errors.New("connection reset by peer")
}

func TestDashboardStatus_StoreError(t *testing.T) {
	s := newTestServer(t, nil, func(d repo.DeviceRepository) repo.DeviceRepository { return failingStats{d} })
	aliceID := s.register(t, "alice", "secret1")
	s.setDevice(t, aliceID, "dev-1", nil)
	s.devices.AddSample("dev-1", 450, testNow.Add(-time.Minute))
	cookie, _ := s.login(t, "alice", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/dashboard/status", nil)
	req.AddCookie(cookie)
	w := s.do(req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Body.String() != "failed to load dashboard\n" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestDashboardStatus_NaNWeight(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID := s.register(t, "alice", "secret1")
	s.setDevice(t, aliceID, "dev-1", nil)
	s.devices.AddSample("dev-1", math.NaN(), testNow.Add(-time.Minute))
	cookie, _ := s.login(t, "alice", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/dashboard/status", nil)
	req.AddCookie(cookie)
	w := s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var p dashboard.Payload
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if p.CurrentMilkAmount != 0 || p.IsWeightSensorActive {
		t.Errorf("expected an inactive sensor with no milk, got %+v", p)
	}
}
