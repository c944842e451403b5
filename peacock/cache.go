package peacock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
)

// CacheStats summarizes response cache activity.
type CacheStats struct {
	Entries uint64
	Hits    uint64
	Misses  uint64
}

// ResponseCache caches upstream API responses keyed by
// (method, endpoint, body). Entries have no TTL: staleness is bounded only
// by explicit clears. A small endpoint index sits next to ristretto so
// targeted invalidation by endpoint pattern stays possible.
type ResponseCache struct {
	cache *ristretto.Cache
	log   zerolog.Logger

	mu    sync.Mutex
	byKey map[string]string // cache key -> endpoint
}

// NewResponseCache creates an empty response cache.
func NewResponseCache(log zerolog.Logger) (*ResponseCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 26,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	return &ResponseCache{
		cache: cache,
		log:   log,
		byKey: make(map[string]string),
	}, nil
}

// Key derives the cache key for a request. Bodies are hashed after JSON
// serialization so the key stays bounded regardless of payload size.
func (c *ResponseCache) Key(method, endpoint string, body interface{}) string {
	bodyHash := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err == nil {
			sum := sha256.Sum256(encoded)
			bodyHash = hex.EncodeToString(sum[:8])
		}
	}
	return method + ":" + endpoint + ":" + bodyHash
}

// Get returns the cached response for a request, if present.
func (c *ResponseCache) Get(method, endpoint string, body interface{}) (json.RawMessage, bool) {
	value, found := c.cache.Get(c.Key(method, endpoint, body))
	if !found {
		return nil, false
	}
	data, ok := value.(json.RawMessage)
	if !ok {
		return nil, false
	}
	return data, true
}

// Set stores a successful response. The write is flushed before returning
// so a subsequent Get on the same key observes it.
func (c *ResponseCache) Set(method, endpoint string, body interface{}, data json.RawMessage) {
	key := c.Key(method, endpoint, body)
	if !c.cache.Set(key, data, int64(len(data))+1) {
		return
	}
	c.cache.Wait()

	c.mu.Lock()
	c.byKey[key] = endpoint
	c.mu.Unlock()
}

// Clear empties the whole cache.
func (c *ResponseCache) Clear() {
	c.cache.Clear()
	c.mu.Lock()
	c.byKey = make(map[string]string)
	c.mu.Unlock()
	c.log.Debug().Msg("response cache cleared")
}

// ClearEndpoint drops every entry whose endpoint contains the pattern.
func (c *ResponseCache) ClearEndpoint(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, endpoint := range c.byKey {
		if strings.Contains(endpoint, pattern) {
			c.cache.Del(key)
			delete(c.byKey, key)
		}
	}
}

// Stats reports entry count and hit/miss counters.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	entries := uint64(len(c.byKey))
	c.mu.Unlock()

	metrics := c.cache.Metrics
	return CacheStats{
		Entries: entries,
		Hits:    metrics.Hits(),
		Misses:  metrics.Misses(),
	}
}
