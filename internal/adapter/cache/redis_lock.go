package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned by WithLock when another holder owns the key.
var ErrLockNotAcquired = errors.New("lock not acquired")

const lockPrefix = "lock:"

// releaseScript deletes the lock only while it still carries our owner value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore provides short-lived locks and key/value entries backed by Redis.
type RedisStore struct {
	client redis.UniversalClient
	node   *snowflake.Node
}

// NewRedisStore constructs a Redis-backed store. The snowflake node mints a
// fresh owner token for every lock acquisition.
func NewRedisStore(client redis.UniversalClient, node *snowflake.Node) *RedisStore {
	return &RedisStore{client: client, node: node}
}

// Acquire sets lock:<key> if absent and returns the owner token that must be
// passed to Release. It reports false when the key is held.
func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := s.node.Generate().String()
	ok, err := s.client.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops lock:<key> only while it still carries token.
func (s *RedisStore) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{lockPrefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// WithLock runs fn while holding key. The lock is released even when fn fails.
func (s *RedisStore) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (err error) {
	token, ok, err := s.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotAcquired
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if relErr := s.Release(releaseCtx, key, token); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(ctx)
}

// SetEX stores value under key with a TTL.
func (s *RedisStore) SetEX(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get loads key. A missing key returns ok=false without error.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Del removes key.
func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
