package handlers_integrated_test_suite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/smartmilk/smart-milk/internal/dashboard"
	"github.com/smartmilk/smart-milk/internal/http/handlers"
)

func TestMain(m *testing.M) {
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		fmt.Printf("%s not set, skipping Postgres integration tests\n", testDatabaseEnv)
		os.Exit(0)
	}
	if err := setup(url); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	code := m.Run()
	database.Close()
	os.Exit(code)
}

func TestAuthFlow(t *testing.T) {
	t.Cleanup(clearAll)
	clearAll()

	t.Run("Register then login", func(t *testing.T) {
		if _, token, err := registerAndLogin("alice", "secret1"); err != nil || token == "" {
			t.Fatalf("expected a token, got %q (%v)", token, err)
		}
	})

	t.Run("Duplicate username is a conflict", func(t *testing.T) {
		w := doJSON(http.MethodPost, "/register", handlers.RegisterRequest{Username: "alice", Password: "secret1", Email: "x@example.com"})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", w.Code)
		}
	})

	t.Run("Wrong password is rejected", func(t *testing.T) {
		w := doJSON(http.MethodPost, "/login", handlers.CredentialsRequest{Username: "alice", Password: "bad"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("Protected route without token is rejected", func(t *testing.T) {
		w := doJSON(http.MethodGet, "/me", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("Database health", func(t *testing.T) {
		if w := doJSON(http.MethodGet, "/health/db", nil); w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}

func TestDashboardFlow(t *testing.T) {
	t.Cleanup(clearAll)
	clearAll()

	_, token, err := registerAndLogin("bob", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(http.MethodPut, "/settings/milk", handlers.MilkSettings{DeviceID: "dev-pg"}, withBearer(token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from settings, got %d: %s", w.Code, w.Body.String())
	}

	now := time.Now().UTC().Truncate(time.Second)
	emptyOn := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 3)
	if err := addSample("dev-pg", 700, now.Add(-30*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := addSample("dev-pg", 450, now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := putStats("dev-pg", 150, 45, 2, emptyOn); err != nil {
		t.Fatal(err)
	}

	w = doJSON(http.MethodGet, "/dashboard/status", nil, withBearer(token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var p dashboard.Payload
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.CurrentMilkAmount != 450 || p.PercentFull != 45 || p.CoffeeCupsLeft != 2 || p.AverageDailyConsumption != 150 {
		t.Errorf("unexpected payload %+v", p)
	}
	if !p.IsWeightSensorActive {
		t.Error("expected sensor to be active")
	}
	if p.ExpectedMilkEndDay == nil || *p.ExpectedMilkEndDay != emptyOn.Format("2006-01-02") {
		t.Errorf("unexpected expectedMilkEndDay %v", p.ExpectedMilkEndDay)
	}
	if p.DeltaSinceYesterday == nil || *p.DeltaSinceYesterday != -250 {
		t.Errorf("unexpected deltaSinceYesterday %v", p.DeltaSinceYesterday)
	}
}
