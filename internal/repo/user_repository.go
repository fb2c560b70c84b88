package repo

import (
	"context"

	"github.com/smartmilk/smart-milk/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	// Update overwrites the mutable columns of an existing user.
	Update(ctx context.Context, u models.User) (models.User, error)
}
