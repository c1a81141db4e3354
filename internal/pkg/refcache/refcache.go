package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache is a read-through cache for reference data (categories, cards,
// earning rules, credits). Invalidation is manual: the admin CRUD
// surface calls Invalidate after writes. Redis-backed when a client is
// configured, otherwise process-local.
type Cache struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	local map[string]localEntry
}

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

// Loader fetches the authoritative value on a cache miss.
type Loader func(ctx context.Context) (interface{}, error)

// New creates a cache. client may be nil.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		local:  make(map[string]localEntry),
	}
}

// GetJSON reads key into dest, loading and storing the value on a
// miss. Cache failures degrade to a direct load, never to an error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}, load Loader) error {
	if data, ok := c.fetch(ctx, key); ok {
		if err := json.Unmarshal(data, dest); err == nil {
			return nil
		}
		// Stored value no longer unmarshals (schema drift): drop it.
		c.drop(ctx, key)
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store(ctx, key, data)

	return json.Unmarshal(data, dest)
}

// Invalidate removes keys so the next read hits the loader.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.drop(ctx, key)
	}
}

func (c *Cache) fetch(ctx context.Context, key string) ([]byte, bool) {
	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return data, true
		}
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("refcache read failed")
		}
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.local[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *Cache) store(ctx context.Context, key string, data []byte) {
	if c.client != nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("refcache write failed")
		}
		return
	}

	c.mu.Lock()
	c.local[key] = localEntry{data: data, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) drop(ctx context.Context, key string) {
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("refcache delete failed")
		}
		return
	}

	c.mu.Lock()
	delete(c.local, key)
	c.mu.Unlock()
}
