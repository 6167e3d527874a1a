// Package cache holds short-lived caches of backend search responses.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTTL             = 2 * time.Second
	defaultCleanupInterval = 30 * time.Second
)

// cacheEntry wraps a cached body with its expiration time
type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryResponseCache keeps responses in process memory
type InMemoryResponseCache struct {
	entries sync.Map // map[string]*cacheEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// InMemoryOption configures an InMemoryResponseCache
type InMemoryOption func(*InMemoryResponseCache)

// WithInMemoryTTL sets how long a response is served
func WithInMemoryTTL(ttl time.Duration) InMemoryOption {
	return func(c *InMemoryResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryOption {
	return func(c *InMemoryResponseCache) {
		c.logger = logger
	}
}

// NewInMemoryResponseCache creates a cache and starts its cleanup loop.
// Close stops the loop.
func NewInMemoryResponseCache(opts ...InMemoryOption) *InMemoryResponseCache {
	c := &InMemoryResponseCache{
		ttl:    defaultTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()
	return c
}

// Get returns an unexpired response
func (c *InMemoryResponseCache) Get(_ context.Context, key string) ([]byte, bool) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.body, true
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

// Set stores a response for the cache TTL
func (c *InMemoryResponseCache) Set(_ context.Context, key string, body []byte) error {
	c.entries.Store(key, &cacheEntry{
		body:      body,
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

// Close stops the cleanup loop and logs the hit ratio of the session
func (c *InMemoryResponseCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
		hits, misses := c.GetStats()
		c.logger.Debug("Search cache closed",
			zap.Int("entries", c.Count()),
			zap.Int64("hits", hits),
			zap.Int64("misses", misses))
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryResponseCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of stored entries, expired ones included
func (c *InMemoryResponseCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *InMemoryResponseCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *InMemoryResponseCache) removeExpired() {
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Removed expired search responses", zap.Int("count", removed))
	}
}
