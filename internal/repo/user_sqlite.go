package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smartmilk/smart-milk/internal/models"
	"gorm.io/gorm"
)

// SQLiteUserRepository stores users through gorm. It backs local development
// and the repository tests.
type SQLiteUserRepository struct {
	db *gorm.DB
}

func NewSQLiteUserRepository(db *gorm.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int) (models.User, error) {
	var u models.User
	tx := r.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if tx.Error != nil {
		return models.User{}, fmt.Errorf("tx.Error: %w", tx.Error)
	}
	return u, nil
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	tx := r.db.WithContext(ctx).Where("username = ?", username).First(&u)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if tx.Error != nil {
		return models.User{}, fmt.Errorf("tx.Error: %w", tx.Error)
	}
	return u, nil
}

func (r *SQLiteUserRepository) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	tx := r.db.WithContext(ctx).Create(&u)
	if tx.Error != nil {
		return models.User{}, translateGormError(tx.Error)
	}
	return u, nil
}

func (r *SQLiteUserRepository) Update(ctx context.Context, u models.User) (models.User, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.User{ID: u.ID}).
		Select("email", "password_hash", "full_name", "role", "device_id", "alert_threshold_g", "updated_at").
		Updates(&u)
	if tx.Error != nil {
		return models.User{}, translateGormError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return models.User{}, ErrUserNotFound
	}
	return r.GetByID(ctx, u.ID)
}

func translateGormError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicatedValueUnique
	}
	return fmt.Errorf("tx.Error: %w", err)
}
