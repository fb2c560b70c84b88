package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
)

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users []models.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: []models.User{},
	}
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id int) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) CreateUser(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(u) {
		return models.User{}, ErrDuplicatedValueUnique
	}

	now := time.Now().UTC()
	u.ID = len(r.users) + 1
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryUserRepository) Update(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(u) {
		return models.User{}, ErrDuplicatedValueUnique
	}

	for i, existing := range r.users {
		if existing.ID == u.ID {
			u.Username = existing.Username
			u.CreatedAt = existing.CreatedAt
			u.UpdatedAt = time.Now().UTC()
			r.users[i] = u
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

// conflicts reports whether another user already owns u's username or email.
func (r *InMemoryUserRepository) conflicts(u models.User) bool {
	for _, user := range r.users {
		if user.ID == u.ID {
			continue
		}
		if user.Username == u.Username || strings.EqualFold(user.Email, u.Email) {
			return true
		}
	}
	return false
}

func (r *InMemoryUserRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = []models.User{}
}
