package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/smartmilk/smart-milk/internal/config"
)

// Connect opens the Postgres pool through the pgx stdlib driver and checks it
// answers within five seconds.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url not configured")
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// MigratePostgres creates the tables the service reads and writes.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                SERIAL PRIMARY KEY,
		username          VARCHAR(100) NOT NULL UNIQUE,
		email             VARCHAR(255) NOT NULL UNIQUE,
		password_hash     TEXT NOT NULL,
		full_name         VARCHAR(255),
		role              VARCHAR(20) NOT NULL DEFAULT 'user',
		device_id         VARCHAR(128),
		alert_threshold_g INTEGER,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS users_device_id_idx ON users (device_id)`,
	`CREATE TABLE IF NOT EXISTS weight_data (
		id        BIGSERIAL PRIMARY KEY,
		device_id VARCHAR(128) NOT NULL,
		weight    DOUBLE PRECISION NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS weight_data_device_ts_idx ON weight_data (device_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS device_stats (
		device_id               VARCHAR(128) PRIMARY KEY,
		current_amount_g        DOUBLE PRECISION,
		avg_daily_consumption_g DOUBLE PRECISION,
		cups_left               DOUBLE PRECISION,
		percent_full            DOUBLE PRECISION,
		expected_empty_date     DATE,
		expiry_date             DATE
	)`,
}
