package revoke

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSet stores revoked credential ids in Redis so revocations survive
// restarts and are shared across instances. Keys expire with the credential.
type RedisSet struct {
	client *redis.Client
	prefix string
}

// NewRedisSet connects to Redis and verifies the connection.
func NewRedisSet(redisURL string) (*RedisSet, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisSet{client: client, prefix: "revoked:"}, nil
}

// NewRedisSetWithClient creates a set from an existing Redis client.
func NewRedisSetWithClient(client *redis.Client) *RedisSet {
	return &RedisSet{client: client, prefix: "revoked:"}
}

func (s *RedisSet) key(jti string) string {
	return s.prefix + jti
}

func (s *RedisSet) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	return nil
}

func (s *RedisSet) IsRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked credential: %w", err)
	}
	return count > 0, nil
}

// Close closes the Redis connection.
func (s *RedisSet) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisSet) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
