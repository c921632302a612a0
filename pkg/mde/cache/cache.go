package cache

import (
	"sync/atomic"
)

// Cache validates stored digests against current file attributes.
// A nil *Cache is valid and behaves as an always-miss cache, so callers
// can wire it through unconditionally.
type Cache struct {
	store *Store

	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens a digest cache rooted at path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}

// Lookup returns the cached digest for path if the stored size and mtime
// still match the current values. Store-level failures are treated as
// misses; the caller falls back to hashing.
func (c *Cache) Lookup(path string, size, mtime int64) (string, bool) {
	if c == nil {
		return "", false
	}

	entry, err := c.store.Get(path)
	if err != nil || entry.Size != size || entry.Mtime != mtime {
		c.misses.Add(1)
		return "", false
	}

	c.hits.Add(1)
	return entry.Digest, true
}

// Record stores a freshly computed digest with the attributes it was
// computed against. Failures are silently dropped: the cache is an
// optimization, never a scan dependency.
func (c *Cache) Record(path string, size, mtime int64, digest string) {
	if c == nil {
		return
	}
	_ = c.store.Set(path, &Entry{Size: size, Mtime: mtime, Digest: digest})
}

// Stats returns the hit and miss counts accumulated so far.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}
