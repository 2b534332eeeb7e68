package ercot

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"
)

// responseCache is an in-memory TTL cache of raw API pages, keyed by the full
// request URL.
//
// It exists for local development only: iterating on forecast code replays
// the same date ranges over and over, and the cache keeps that from hammering
// the ERCOT API. It is enabled with ERCOT_ENABLE_CACHE=true and refuses to
// activate when APP_ENV=production.
type responseCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	page      *apiPage
	expiresAt time.Time
}

var (
	globalCache *responseCache
	cacheOnce   sync.Once
)

// getCache returns the shared cache instance, or nil when caching is off.
func getCache() *responseCache {
	if os.Getenv("ERCOT_ENABLE_CACHE") != "true" {
		return nil
	}
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}

	cacheOnce.Do(func() {
		ttl := time.Hour
		if s := os.Getenv("ERCOT_CACHE_TTL"); s != "" {
			if parsed, err := time.ParseDuration(s); err == nil {
				ttl = parsed
			}
		}
		globalCache = &responseCache{
			store: make(map[string]cacheEntry),
			ttl:   ttl,
		}
		go globalCache.cleanup()
	})
	return globalCache
}

func (c *responseCache) get(key string) (*apiPage, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.page, true
}

func (c *responseCache) set(key string, page *apiPage) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry{page: page, expiresAt: time.Now().Add(c.ttl)}
}

func (c *responseCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.store {
			if now.After(entry.expiresAt) {
				delete(c.store, key)
			}
		}
		c.mu.Unlock()
	}
}

func cacheKey(requestURL string) string {
	sum := sha256.Sum256([]byte(requestURL))
	return hex.EncodeToString(sum[:])
}
