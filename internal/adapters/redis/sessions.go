package redisad

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"stayfinder/internal/domain"
)

// Sessions keeps opaque bearer tokens in Redis with a TTL. The token
// is the only thing the browser holds; the value is just the user id.
type Sessions struct{ c *redis.Client }

func NewSessions(addr, pass string, db int) *Sessions {
	return &Sessions{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func sessionKey(token string) string { return "session:" + token }

func (s *Sessions) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.c.Set(ctx, sessionKey(token), strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Sessions) Resolve(ctx context.Context, token string) (int64, error) {
	v, err := s.c.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *Sessions) Destroy(ctx context.Context, token string) error {
	return s.c.Del(ctx, sessionKey(token)).Err()
}
