package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// cacheKey returns SHA-256 hex of the normalized query.
func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// cache keeps geocode results (matches and non-matches) for the process
// lifetime. Supplier cities repeat heavily across requests. A nil cache is a
// no-op.
type cache struct {
	mu      sync.RWMutex
	entries map[string]*Result
}

func newCache() *cache {
	return &cache{entries: make(map[string]*Result)}
}

func (c *cache) get(key string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	if ok {
		zap.L().Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", r.Matched))
	}
	return r, ok
}

func (c *cache) set(key string, r *Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = r
}
