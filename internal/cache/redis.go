package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 500 * time.Millisecond

// redisKV es el subconjunto de *redis.Client que usa RedisStore.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisStore comparte el cache entre replicas. Todas las claves llevan prefix.
type RedisStore struct {
	client redisKV
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "govtwool:cache:"}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultMaxTTL
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Clear borra solo las claves con el prefijo propio.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(keys []string) error {
		return s.client.Del(ctx, keys...).Err()
	})
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(keys []string) error {
		n += len(keys)
		return nil
	})
	return n, err
}

func (s *RedisStore) Backend() string { return "redis" }

func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
