package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	// Entries are hashes {ver, doc}; the v2 prefix keeps them apart from
	// the plain string values written by earlier releases.
	itemCacheKeyPrefix = "item:v2"
)

// setIfNewer writes the document only when the stored version is absent or
// strictly older. Versions are fixed-width decimal strings, so string order
// is numeric order. Returns 1 when written, 0 when a fresher copy was kept.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ver')
if cur and cur >= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'ver', ARGV[1], 'doc', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// commander is the subset of redis.Cmdable the item cache uses.
type commander interface {
	redis.Scripter
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ItemCache is a read-through cache of item documents. Each entry carries
// the version it was written at and is never replaced by an older one, so
// concurrent writers cannot roll a cached item back. The snapshot store
// stays authoritative.
// Key format: "item:v2:{itemID}"
type ItemCache struct {
	client commander
	ttl    time.Duration
}

// NewItemCache creates an ItemCache backed by r. It returns nil when r is
// nil, which callers treat as "caching disabled".
func NewItemCache(r *RedisClient) *ItemCache {
	if r == nil {
		return nil
	}
	return newItemCache(r.Client(), ItemCacheTTL)
}

func newItemCache(c commander, ttl time.Duration) *ItemCache {
	return &ItemCache{client: c, ttl: ttl}
}

// Get decodes the cached value for itemID into dst.
// Returns an error wrapping redis.Nil when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID string, dst any) error {
	raw, err := c.client.HGet(ctx, c.key(itemID), "doc").Bytes()
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("cache decode %s: %w", itemID, err)
	}
	return nil
}

// SetIfNewer stores v under itemID unless the cache already holds a copy at
// version or later. It reports whether v was written.
func (c *ItemCache) SetIfNewer(ctx context.Context, itemID string, version time.Time, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("cache encode %s: %w", itemID, err)
	}
	written, err := setIfNewer.Run(ctx, c.client,
		[]string{c.key(itemID)},
		versionString(version), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return written == 1, nil
}

// Delete removes a cached item.
func (c *ItemCache) Delete(ctx context.Context, itemID string) error {
	if err := c.client.Del(ctx, c.key(itemID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "item:v2:{itemID}"
func (c *ItemCache) key(itemID string) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}

func versionString(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}
