package ingest

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// LineCache remembers which (mode, line) pairs are known to be persisted, so
// that the writer can skip writing them again. It is an optimization only:
// the store accepts repeated writes of the same pair
type LineCache struct {
	mu    sync.Mutex
	modes *cache.Cache
}

// NewLineCache returns an empty LineCache
func NewLineCache() *LineCache {
	return &LineCache{
		modes: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

// Known returns whether the pair was remembered
func (c *LineCache) Known(mode, line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	linesIface, ok := c.modes.Get(mode)
	if !ok {
		return false
	}
	_, ok = linesIface.(map[string]struct{})[line]
	return ok
}

// Remember marks the pair as persisted
func (c *LineCache) Remember(mode, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := map[string]struct{}{}
	if linesIface, ok := c.modes.Get(mode); ok {
		lines = linesIface.(map[string]struct{})
	}
	lines[line] = struct{}{}
	c.modes.SetDefault(mode, lines)
}

// Len returns the number of remembered pairs
func (c *LineCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.modes.Items() {
		n += len(item.Object.(map[string]struct{}))
	}
	return n
}
