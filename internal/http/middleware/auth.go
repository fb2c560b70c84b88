package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/smartmilk/smart-milk/internal/auth"
)

type contextKey string

const userIDKey = contextKey("user_id")

// Authenticator resolves the calling user of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (int, error)
}

func AuthMiddleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := a.Authenticate(r)
			if errors.Is(err, auth.ErrUnauthenticated) {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			if err != nil {
				// The session store is unreachable; the caller may still be logged in.
				http.Error(w, "authentication unavailable", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns 0 when the request did not pass AuthMiddleware.
func GetUserID(r *http.Request) int {
	if val, ok := r.Context().Value(userIDKey).(int); ok {
		return val
	}
	return 0
}
