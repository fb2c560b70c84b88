package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Create(ctx context.Context, userID int, ttl time.Duration) (string, error) {
	id := newID()
	if err := s.rdb.Set(ctx, keyPrefix+id, userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, ErrNotFound
	}
	val, err := s.rdb.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	return userID, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
