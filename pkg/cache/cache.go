package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 10 * time.Second

// Entry is one cached response body and the time it was fetched.
type Entry struct {
	Data     []byte
	StoredAt time.Time
}

// Store persists entries beyond the life of the process.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, entry Entry) error
}

type Fetcher func(ctx context.Context) ([]byte, error)

// ResponseCache keeps successful responses for a fixed TTL. Concurrent fetches of the same key share
// one upstream call.
type ResponseCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]Entry
	group   singleflight.Group
	store   Store
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(c *ResponseCache)

func New(ttl time.Duration, opts ...Option) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ResponseCache{
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithStore backs the in-memory map with a persistent store.
func WithStore(s Store) Option {
	return func(c *ResponseCache) {
		c.store = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) {
		c.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *ResponseCache) {
		c.logger = logger
	}
}

func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Fetch returns the cached value for key while it is younger than the TTL, otherwise it calls fetch.
// forceRefresh skips the lookup. Failed fetches are never stored.
func (c *ResponseCache) Fetch(ctx context.Context, key string, forceRefresh bool, fetch Fetcher) ([]byte, error) {
	if !forceRefresh {
		if data, ok := c.fresh(key); ok {
			return data, nil
		}
	}

	flight := key
	if forceRefresh {
		flight = "refresh:" + key
	}
	v, err, _ := c.group.Do(flight, func() (interface{}, error) {
		if !forceRefresh {
			if data, ok := c.fresh(key); ok {
				return data, nil
			}
			if data, ok := c.loadStored(ctx, key); ok {
				return data, nil
			}
		}

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		entry := Entry{Data: data, StoredAt: c.now()}
		c.mu.Lock()
		c.entries[key] = entry
		c.mu.Unlock()

		if c.store != nil {
			if err := c.store.Save(ctx, key, entry); err != nil {
				c.logger.Warn("persisting cache entry", "key", key, "error", err)
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *ResponseCache) fresh(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.StoredAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.Data, true
}

func (c *ResponseCache) loadStored(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	entry, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.logger.Warn("loading cache entry", "key", key, "error", err)
		return nil, false
	}
	if !ok || c.now().Sub(entry.StoredAt) >= c.ttl {
		return nil, false
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry.Data, true
}

func (c *ResponseCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Reset drops every in-memory entry. Persisted rows are left to Purge.
func (c *ResponseCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
