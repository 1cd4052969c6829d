package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces gateway response entries in a shared Redis.
const redisKeyPrefix = "chatgate:resp:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379")
	URL string

	// TTL is the time-to-live for cached entries (defaults to DefaultTTL)
	TTL time.Duration
}

// RedisCache implements Cache using Redis, for deployments running several
// gateway instances behind a load balancer. Expiry is enforced by Redis via
// the per-key TTL set at insertion, matching the in-memory semantics.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed response cache.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	slog.Info("redis response cache connected", "ttl", ttl)

	return &RedisCache{client: client, ttl: ttl}, nil
}

// redisKey hashes the logical cache key. Keys embed raw message text, which
// can be arbitrarily long; hashing bounds the Redis key size.
func redisKey(key string) string {
	return fmt.Sprintf("%s%016x", redisKeyPrefix, xxhash.Sum64String(key))
}

// Get retrieves the entry for key from Redis. Returns nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry from redis: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse cached entry: %w", err)
	}
	return &entry, nil
}

// Put stores entry under key with the cache TTL.
func (c *RedisCache) Put(ctx context.Context, key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set entry in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
