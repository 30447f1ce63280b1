package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/transit-ops/pkg/config"
)

const (
	connectTimeout = 5 * time.Second
	scanBatch      = 100
)

// Client is the snapshot cache's connection to Redis.
type Client struct {
	*redis.Client
}

// Options maps the service configuration onto go-redis options. Snapshot
// payloads are large and infrequent, so the pool stays small and reads get
// more headroom than writes.
func Options(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		DialTimeout:  connectTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: time.Second,
	}
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return &Client{Client: client}, nil
}

// Wrap adapts an existing go-redis client, e.g. one returned by redismock
func Wrap(client *redis.Client) *Client {
	return &Client{Client: client}
}

// IsNil reports whether err is a cache miss
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// SetWithExpiration stores value under key for ttl.
func (c *Client) SetWithExpiration(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Set(ctx, key, value, ttl).Err()
}

// GetString reads key. Misses satisfy IsNil.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	return c.Get(ctx, key).Result()
}

// Delete removes keys.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.Del(ctx, keys...).Err()
}

// DeleteMatching removes every key matching pattern and returns how many
// were deleted. It walks the keyspace with SCAN so a large keyspace does
// not block the server.
func (c *Client) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.Del(ctx, keys...).Err(); err != nil {
				return removed, fmt.Errorf("delete %d keys: %w", len(keys), err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Ping checks the connection, used by readiness probes
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.Client.Close()
}
