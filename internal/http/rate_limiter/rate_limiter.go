package rate_limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func New(rps float64, burst int) *Limiter {
	return &Limiter{
		visitors: make(map[string]*clientLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *Limiter) Allow(ip string) bool {
	return l.getVisitor(ip).AllowN(l.now(), 1)
}

func (l *Limiter) getVisitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(l.rps, l.burst)
		l.visitors[ip] = &clientLimiter{limiter, l.now()}
		return limiter
	}

	v.lastSeen = l.now()
	return v.limiter
}

// StartVisitorCleanupLoop forgets clients idle for longer than idle, every
// interval, until ctx is done.
func (l *Limiter) StartVisitorCleanupLoop(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup(idle)
		}
	}
}

func (l *Limiter) cleanup(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > idle {
			delete(l.visitors, ip)
		}
	}
}

func (l *Limiter) CleanupAllVisitors() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visitors = make(map[string]*clientLimiter)
}
