package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sketchroom/go-sketchroom/internal/types"
)

const (
	redisTokenKey = "sketchroom:auth-token"
	redisUserKey  = "sketchroom:auth-user"
)

// RedisCredentialStore keeps the persisted credential in redis so a session
// survives process restarts on hosts without durable local storage.
type RedisCredentialStore struct {
	client *redis.Client
}

func NewRedisCredentialStore(addr string, db int) (*RedisCredentialStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCredentialStore{client: client}, nil
}

func (s *RedisCredentialStore) SetToken(ctx context.Context, token string) error {
	return s.client.Set(ctx, redisTokenKey, token, 0).Err()
}

func (s *RedisCredentialStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, redisTokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (s *RedisCredentialStore) SetCachedUser(ctx context.Context, user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.client.Set(ctx, redisUserKey, data, 0).Err()
}

func (s *RedisCredentialStore) CachedUser(ctx context.Context) (types.User, error) {
	data, err := s.client.Get(ctx, redisUserKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("get cached user: %w", err)
	}

	var user types.User
	if err := json.Unmarshal(data, &user); err != nil {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, redisTokenKey, redisUserKey).Err()
}

func (s *RedisCredentialStore) Close() error {
	return s.client.Close()
}
