// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces every key written by JSONCache.
	keyPrefix = "cache:"

	// DefaultTTL is how long a value stays cached when no TTL is given.
	DefaultTTL = 5 * time.Minute
)

// Keys used by the catalogue.
const (
	CategoriesKey      = "categories"
	ValidatorKey       = "categories:schema"
	recommendationsKey = "recommendations:"
)

// RecommendationsKey returns the cache key for a user's recommendations.
func RecommendationsKey(userID string) string {
	return recommendationsKey + userID
}

// JSONCache stores JSON-encoded values in Valkey. Cache failures are
// logged and reported as misses; callers always have a slower path.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJSONCache creates a cache backed by the given Valkey client.
func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &JSONCache{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst. Returns false on a miss.
func (c *JSONCache) Get(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("cache hit", "key", key)
	return true
}

// Set stores v under key with the cache's TTL.
func (c *JSONCache) Set(ctx context.Context, key string, v any) {
	c.SetTTL(ctx, key, v, c.ttl)
}

// SetTTL stores v under key with an explicit TTL.
func (c *JSONCache) SetTTL(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, b, ttl).Err(); err != nil {
		slog.Warn("cache set error", "key", key, "error", err)
	}
}

// Delete removes keys from the cache.
func (c *JSONCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		slog.Warn("cache delete error", "keys", keys, "error", err)
	}
}

// InvalidatePrefix removes every key starting with prefix by scanning.
func (c *JSONCache) InvalidatePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, keyPrefix+prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("cache prefix cleared", "prefix", prefix, "deleted", deleted)
	}
}
