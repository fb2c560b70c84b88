package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smartmilk/smart-milk/internal/models"
)

const (
	pgUniqueViolation   = "23505"
	defaultQueryTimeout = 3 * time.Second
)

const userColumns = `id, username, email, password_hash, full_name, role, device_id, alert_threshold_g, created_at, updated_at`

type PostgresUserRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresUserRepository(db *sql.DB, queryTimeout time.Duration) *PostgresUserRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PostgresUserRepository{db: db, timeout: queryTimeout}
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	query := `INSERT INTO users (username, email, password_hash, full_name, role, device_id, alert_threshold_g, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, nullString(u.FullName), u.Role,
		nullString(u.DeviceID), u.AlertThreshold, time.Now().UTC(),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, translatePgError(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u models.User) (models.User, error) {
	query := `UPDATE users
		SET email = $1, password_hash = $2, full_name = $3, role = $4, device_id = $5, alert_threshold_g = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + userColumns
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, nullString(u.FullName), u.Role,
		nullString(u.DeviceID), u.AlertThreshold, time.Now().UTC(), u.ID,
	)
	updated, err := scanUser(row)
	if err != nil {
		return models.User{}, translatePgError(err)
	}
	return updated, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		u         models.User
		fullName  sql.NullString
		deviceID  sql.NullString
		threshold sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &u.Role,
		&deviceID, &threshold, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	u.FullName = fullName.String
	u.DeviceID = deviceID.String
	if threshold.Valid {
		t := int(threshold.Int64)
		u.AlertThreshold = &t
	}
	return u, nil
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicatedValueUnique
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
