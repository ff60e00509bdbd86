package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	strataerrors "github.com/matzehuels/strata/pkg/errors"
)

// redisPrefix namespaces every key this cache writes, so Clear never touches
// foreign keys in a shared database.
const redisPrefix = "strata:"

// RedisCache stores entries in Redis with native key expiry.
type RedisCache struct {
	client *redis.Client
	url    string
}

// NewRedisCache connects to the Redis server at url
// (redis://[:password@]host:port/db) and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	if err := strataerrors.ValidateURL(url, "redis", "rediss"); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, strataerrors.Wrap(strataerrors.ErrCodeInvalidInput, err, "parse redis url")
	}
	c := &RedisCache{client: redis.NewClient(opts), url: url}
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.client.Close()
		return nil, strataerrors.Wrap(strataerrors.ErrCodeUnavailable, err, "connect to redis")
	}
	return c, nil
}

// Get retrieves a value. Transient failures are retried.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.client.Get(ctx, redisPrefix+key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			return nil
		case err != nil:
			return transient(err)
		}
		data, hit = b, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, hit, nil
}

// Set stores a value. A zero ttl keeps the entry until it is evicted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := RetryWithBackoff(ctx, func() error {
		return transient(c.client.Set(ctx, redisPrefix+key, data, ttl).Err())
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisPrefix+key).Err()
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Clear deletes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	n, err := c.client.Del(ctx, keys...).Result()
	return int(n), err
}

// Stats counts the keys under the cache prefix and sums their memory usage.
func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Backend: BackendRedis, Location: c.client.Options().Addr}
	keys, err := c.keys(ctx)
	if err != nil {
		return s, err
	}
	s.Entries = len(keys)
	for _, k := range keys {
		// MEMORY USAGE is unavailable on some managed services.
		if n, err := c.client.MemoryUsage(ctx, k).Result(); err == nil {
			s.Bytes += n
		}
	}
	return s, nil
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// transient marks network level failures as retryable.
func transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
}

var (
	_ Cache      = (*RedisCache)(nil)
	_ Maintainer = (*RedisCache)(nil)
)
