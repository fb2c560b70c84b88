// Package session keeps browser sessions: an opaque id mapped to a user id
// until the entry expires.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found or expired")

type Store interface {
	Create(ctx context.Context, userID int, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

func newID() string {
	return uuid.NewString()
}
