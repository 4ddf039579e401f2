package analysis

import "sync"

// resultCache is a bounded map keyed by content hash. Eviction removes the
// oldest inserted entry once capacity is exceeded. This is a memory-growth
// guard for a small per-session working set, not an LRU.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]cachedResult
	order    []string
}

type cachedResult struct {
	result AnalysisResult
	source string
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = 10
	}
	return &resultCache{
		capacity: capacity,
		entries:  make(map[string]cachedResult, capacity),
	}
}

func (c *resultCache) Get(hash string) (AnalysisResult, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[hash]
	if !ok {
		return AnalysisResult{}, "", false
	}
	return entry.result, entry.source, true
}

func (c *resultCache) Put(hash string, result AnalysisResult, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[hash]; !exists {
		c.order = append(c.order, hash)
		if len(c.order) > c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[hash] = cachedResult{result: result, source: source}
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
