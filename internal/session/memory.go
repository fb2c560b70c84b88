package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	userID    int
	expiresAt time.Time
}

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]entry{},
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID int, ttl time.Duration) (string, error) {
	id := newID()

	s.mu.Lock()
	s.sessions[id] = entry{userID: userID, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()

	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return 0, ErrNotFound
	}
	return e.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// StartCleanupLoop drops expired sessions every interval until ctx is done.
func (s *MemoryStore) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
