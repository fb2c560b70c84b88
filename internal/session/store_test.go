package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return clock }

	id, err := s.Create(ctx, 7, time.Hour)
	require.NoError(t, err)

	userID, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)

	clock = clock.Add(time.Hour)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	other, _ := s.Create(ctx, 8, time.Minute)
	require.NoError(t, s.Delete(ctx, other))
	_, err = s.Get(ctx, other)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RemoveExpired(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return clock }

	_, _ = s.Create(ctx, 1, time.Minute)
	keep, _ := s.Create(ctx, 2, time.Hour)

	clock = clock.Add(2 * time.Minute)
	s.removeExpired()

	assert.Len(t, s.sessions, 1)
	_, ok := s.sessions[keep]
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := NewRedisStore(rdb)

	id, err := s.Create(ctx, 42, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL(keyPrefix+id))

	userID, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	mr.FastForward(31 * time.Minute)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	id, _ = s.Create(ctx, 43, time.Hour)
	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
