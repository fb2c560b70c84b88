package middleware

import (
	"net"
	"net/http"

	rl "github.com/smartmilk/smart-milk/internal/http/rate_limiter"
)

func RateLimitMiddleware(limiter *rl.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r)) {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the host part of RemoteAddr. chi's RealIP middleware rewrites
// RemoteAddr from X-Forwarded-For before this runs.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
