package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache keeps recently produced results for fast status lookups
type ResultCache interface {
	Get(ctx context.Context, verificationID string) (*Result, bool)
	Set(ctx context.Context, result *Result) error
}

const resultKeyPrefix = "verification:result:"

// RedisCache stores results as JSON with an expiry
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed result cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, verificationID string) (*Result, bool) {
	data, err := c.client.Get(ctx, resultKeyPrefix+verificationID).Bytes()
	if err != nil {
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := c.client.Set(ctx, resultKeyPrefix+result.VerificationID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MemoryCache is an in-process ResultCache with per-entry expiry
type MemoryCache struct {
	data    map[string]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// cacheEntry represents a cache entry with expiration
type cacheEntry struct {
	value      *Result
	expiration time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	// Start cleanup goroutine
	go cache.cleanupLoop()

	return cache
}

func (c *MemoryCache) Get(_ context.Context, verificationID string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[verificationID]
	if !ok || c.now().After(entry.expiration) {
		return nil, false
	}

	return entry.value, true
}

func (c *MemoryCache) Set(_ context.Context, result *Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[result.VerificationID] = &cacheEntry{
		value:      result,
		expiration: c.now().Add(c.ttl),
	}
	return nil
}

// Size returns the number of entries in the cache, expired ones included
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() {
	c.once.Do(func() {
		close(c.done)
		c.cleanup.Stop()
	})
}

func (c *MemoryCache) cleanupLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.cleanup.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
}
