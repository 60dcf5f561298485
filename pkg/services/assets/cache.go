package assets

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
)

// Resolution is the terminal state of one URL: a local file path on
// success, or the error that sank it.
type Resolution struct {
	Path string
	Err  error
}

// Cache maps photo URLs to their run-local resolutions. It is the only
// structure mutated by concurrent fetch workers; all writes go through the
// mutex. A cache belongs to exactly one run.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Resolution
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Resolution)}
}

// Key derives the deterministic on-disk name for a URL.
func Key(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:]) + ".jpg"
}

// Put records the terminal state for a URL.
func (c *Cache) Put(url string, res Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = res
}

// Lookup returns the local path for a successfully fetched URL.
func (c *Cache) Lookup(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[url]
	if !ok || res.Err != nil {
		return "", false
	}
	return res.Path, true
}

// Resolved reports whether the URL has any terminal state, failed included.
func (c *Cache) Resolved(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[url]
	return ok
}

// Stats counts resolved successes and failures.
func (c *Cache) Stats() (fetched, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, res := range c.entries {
		if res.Err != nil {
			failed++
		} else {
			fetched++
		}
	}
	return fetched, failed
}
