package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisclient "github.com/richxcame/transit-ops/pkg/redis"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis *redisclient.Client
}

// NewManager creates a new cache manager
func NewManager(redis *redisclient.Client) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	data, err := m.redis.GetString(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return ErrMiss
		}
		return err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.redis.SetWithExpiration(ctx, key, string(data), ttl)
}

// Delete removes keys from cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	return m.redis.Delete(ctx, keys...)
}

// SetIfGenerationScript stores ARGV[2] at KEYS[1] for ARGV[3] milliseconds
// only while the counter at KEYS[2] still equals ARGV[1]. A missing counter
// reads as "0". It returns 1 when the value was written.
const SetIfGenerationScript = `local current = redis.call('GET', KEYS[2])
if not current then current = '0' end
if current ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1`

// Generation reads the counter at genKey. An absent counter is zero.
func (m *Manager) Generation(ctx context.Context, genKey string) (int64, error) {
	raw, err := m.redis.GetString(ctx, genKey)
	if redisclient.IsNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("generation %s: %w", genKey, err)
	}
	return gen, nil
}

// Bump advances the counter at genKey and then removes keys. Readers that
// loaded data under the old generation can no longer store it.
func (m *Manager) Bump(ctx context.Context, genKey string, keys ...string) error {
	if err := m.redis.Incr(ctx, genKey).Err(); err != nil {
		return fmt.Errorf("bump %s: %w", genKey, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return m.redis.Delete(ctx, keys...)
}

// SetIfGeneration caches value at key unless genKey moved past gen since
// the caller read it. It reports whether the value was stored.
func (m *Manager) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	stored, err := m.redis.Eval(ctx, SetIfGenerationScript, []string{key, genKey},
		strconv.FormatInt(gen, 10), string(data), ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate removes keys matching pattern and reports how many went.
func (m *Manager) Invalidate(ctx context.Context, pattern string) (int, error) {
	removed, err := m.redis.DeleteMatching(ctx, pattern)
	if err != nil {
		return removed, fmt.Errorf("invalidate %s: %w", pattern, err)
	}
	return removed, nil
}

// CacheKeys defines cache key patterns
type CacheKeys struct{}

var Keys = CacheKeys{}

// Snapshot returns the cache key for a record-store snapshot of a backend
func (k CacheKeys) Snapshot(backend string) string {
	return fmt.Sprintf("transitops:snapshot:%s", backend)
}

// SnapshotGeneration returns the key of the write counter guarding a
// backend's cached snapshot. It sits outside SnapshotPattern so start-up
// purges keep it.
func (k CacheKeys) SnapshotGeneration(backend string) string {
	return fmt.Sprintf("transitops:snapshot-gen:%s", backend)
}

// SnapshotPattern matches every cached snapshot
func (k CacheKeys) SnapshotPattern() string {
	return "transitops:snapshot:*"
}
