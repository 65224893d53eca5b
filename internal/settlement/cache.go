package settlement

import "sync"

// Cache memoizes settlement name to code mappings for one pipeline run.
// A name resolves to the same code for the lifetime of a run, so entries are
// never invalidated or evicted. Concurrent resolutions of the same name may
// both miss and both store; the writes carry the same code, so last write
// wins harmlessly.
type Cache struct {
	mu    sync.RWMutex
	codes map[string]string
}

// NewCache creates an empty cache. Build one per run and hand it to the
// resolver; sharing a cache across runs would pin codes past their source.
func NewCache() *Cache {
	return &Cache{codes: make(map[string]string)}
}

// Get returns the cached code for a settlement name.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.codes[name]
	return code, ok
}

// Put stores the code resolved for a settlement name.
func (c *Cache) Put(name, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[name] = code
}

// Len reports how many settlement names have been resolved so far.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.codes)
}
