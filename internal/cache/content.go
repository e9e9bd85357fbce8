package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"charitydesk/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	contentVersionKey = "content:%s:ver"
	contentListKey    = "content:%s:v%d:list:%d:%d:%s"
	contentItemKey    = "content:%s:v%d:item:%d"
)

// ContentTTL bounds staleness of anonymous content responses.
const ContentTTL = 60 * time.Second

// ContentCache caches anonymous list/show responses per content kind.
// Every mutation of a kind bumps that kind's version, which orphans all of
// its cached entries at once. A nil Redis client disables caching.
//
// When a version bump fails the kind is suspended in this process for one
// TTL: lookups bypass Redis until every entry written before the mutation
// has expired on its own.
type ContentCache struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	suspended map[string]time.Time
}

var errKindSuspended = errors.New("content cache suspended for kind")

// NewContentCache returns a cache backed by rdb. rdb may be nil.
func NewContentCache(rdb *redis.Client) *ContentCache {
	return &ContentCache{rdb: rdb, ttl: ContentTTL, now: time.Now, suspended: map[string]time.Time{}}
}

// Enabled reports whether a Redis client is configured.
func (c *ContentCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *ContentCache) suspend(kind string) {
	c.mu.Lock()
	c.suspended[kind] = c.now().Add(c.ttl)
	c.mu.Unlock()
}

// Suspended reports whether kind is bypassing the cache after a failed invalidation.
func (c *ContentCache) Suspended(kind string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.suspended[kind]
	if !ok {
		return false
	}
	if !c.now().Before(until) {
		delete(c.suspended, kind)
		return false
	}
	return true
}

func (c *ContentCache) version(ctx context.Context, kind string) (int64, error) {
	if c.Suspended(kind) {
		return 0, errKindSuspended
	}
	v, err := c.rdb.Get(ctx, fmt.Sprintf(contentVersionKey, kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// ListKey returns the cache key for one page of a kind at the current version.
func (c *ContentCache) ListKey(ctx context.Context, kind string, limit, offset int, q string) (string, error) {
	v, err := c.version(ctx, kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(contentListKey, kind, v, limit, offset, q), nil
}

// ItemKey returns the cache key for one item of a kind at the current version.
func (c *ContentCache) ItemKey(ctx context.Context, kind string, id uint) (string, error) {
	v, err := c.version(ctx, kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(contentItemKey, kind, v, id), nil
}

// Invalidate bumps the kind version so every cached page and item of that kind misses.
// If the bump fails the kind is suspended, so this process never serves its stale entries.
func (c *ContentCache) Invalidate(ctx context.Context, kind string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, fmt.Sprintf(contentVersionKey, kind)).Err(); err != nil {
		c.suspend(kind)
		middleware.Logger.WarnContext(ctx, "content cache invalidation failed, bypassing kind",
			slog.String("kind", kind), slog.Duration("for", c.ttl), slog.String("error", err.Error()))
	}
}

// Aside returns the cached value under key if present, otherwise calls load,
// stores its result and returns it. Redis failures fall through to load.
func Aside[T any](ctx context.Context, c *ContentCache, name string, key func(context.Context) (string, error), load func(context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		middleware.CacheLookups.WithLabelValues(name, "bypass").Inc()
		return load(ctx)
	}

	k, err := key(ctx)
	if err != nil {
		middleware.CacheLookups.WithLabelValues(name, "bypass").Inc()
		return load(ctx)
	}

	var out T
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err == nil && json.Unmarshal(raw, &out) == nil {
		middleware.CacheLookups.WithLabelValues(name, "hit").Inc()
		return out, nil
	}
	middleware.CacheLookups.WithLabelValues(name, "miss").Inc()

	out, err = load(ctx)
	if err != nil {
		return out, err
	}

	if encoded, mErr := json.Marshal(out); mErr == nil {
		if sErr := c.rdb.Set(ctx, k, encoded, c.ttl).Err(); sErr != nil {
			middleware.Logger.WarnContext(ctx, "content cache write failed",
				slog.String("key", k), slog.String("error", sErr.Error()))
		}
	}
	return out, nil
}
