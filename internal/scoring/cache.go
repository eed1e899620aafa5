package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheTTL is how long a cached result stays valid.
	DefaultCacheTTL = 10 * time.Minute
	// DefaultCacheMaxEntries bounds the number of cached results.
	DefaultCacheMaxEntries = 1000
)

// ResultCache is a TTL cache with an explicit entry limit. When full, expired
// entries are dropped first, then the entries closest to expiry.
type ResultCache struct {
	items      *gocache.Cache
	maxEntries int
	setMu      sync.Mutex // serializes the check-then-insert in Set
}

// NewResultCache creates a cache. Non-positive arguments use the defaults.
func NewResultCache(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	// Janitor disabled: expired entries are purged on insert when the cache is full.
	return &ResultCache{
		items:      gocache.New(ttl, 0),
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key.
func (c *ResultCache) Get(key string) (any, bool) {
	return c.items.Get(key)
}

// Set stores value under key and returns how many entries were evicted to
// make room.
func (c *ResultCache) Set(key string, value any) int {
	c.setMu.Lock()
	defer c.setMu.Unlock()

	evicted := 0
	if _, exists := c.items.Get(key); !exists && c.items.ItemCount() >= c.maxEntries {
		before := c.items.ItemCount()
		c.items.DeleteExpired()
		evicted = before - c.items.ItemCount()
		for c.items.ItemCount() >= c.maxEntries {
			if c.evictSoonestExpiring() {
				evicted++
				continue
			}
			// Items() skips entries that expired after the purge above, but
			// ItemCount() still counts them.
			before := c.items.ItemCount()
			c.items.DeleteExpired()
			evicted += before - c.items.ItemCount()
		}
	}
	c.items.SetDefault(key, value)
	return evicted
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *ResultCache) Len() int {
	return c.items.ItemCount()
}

// Flush drops every entry.
func (c *ResultCache) Flush() {
	c.items.Flush()
}

// evictSoonestExpiring deletes the unexpired entry closest to expiry and
// reports whether one was found.
func (c *ResultCache) evictSoonestExpiring() bool {
	var (
		victim  string
		soonest int64
		found   bool
	)
	for k, item := range c.items.Items() {
		if !found || item.Expiration < soonest {
			victim, soonest, found = k, item.Expiration, true
		}
	}
	if found {
		c.items.Delete(victim)
	}
	return found
}

// CacheKey derives a stable key from the profile identity and the inputs.
// inputs must be JSON-serializable; map keys are sorted by encoding/json, so
// equal inputs always produce the same key.
func CacheKey(profile WeightProfile, inputs any) (string, error) {
	payload, err := json.Marshal(inputs)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(profile.Name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(profile.Version)))
	h.Write([]byte{0})
	weights, err := json.Marshal(profile.Weights)
	if err != nil {
		return "", err
	}
	h.Write(weights)
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}
