package chart

import (
	"sync"
	"time"
)

// Rendered charts are kept per run so the API and the watcher don't redraw
// the same result. Entries expire after ttl and the cache never holds more
// than limit images.
type imageCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	limit int
	now   func() time.Time
	items map[string]cachedImage
}

type cachedImage struct {
	storedAt time.Time
	png      []byte
}

var images = newImageCache(10*time.Minute, 128)

func newImageCache(ttl time.Duration, limit int) *imageCache {
	return &imageCache{ttl: ttl, limit: limit, now: time.Now, items: map[string]cachedImage{}}
}

func (c *imageCache) get(key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok || c.expired(it) {
		return nil, false
	}
	return append([]byte(nil), it.png...), true
}

func (c *imageCache) put(key string, png []byte) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, it := range c.items {
		if c.expired(it) {
			delete(c.items, k)
		}
	}
	if _, exists := c.items[key]; !exists {
		for len(c.items) >= c.limit {
			c.dropOldest()
		}
	}
	c.items[key] = cachedImage{storedAt: c.now(), png: png}
}

func (c *imageCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *imageCache) expired(it cachedImage) bool {
	return !c.now().Before(it.storedAt.Add(c.ttl))
}

func (c *imageCache) dropOldest() {
	var oldest string
	var at time.Time
	for k, it := range c.items {
		if oldest == "" || it.storedAt.Before(at) {
			oldest, at = k, it.storedAt
		}
	}
	delete(c.items, oldest)
}
