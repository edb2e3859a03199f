// Package assetcache keeps versioned, pre-populated copies of the site's
// static shell and serves them cache-first. A cache is filled once, in
// full, when its version is installed, and whole caches are dropped when a
// newer version activates. Entries are never invalidated one by one.
package assetcache

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Entry is a stored response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// Write replays the entry onto w.
func (e *Entry) Write(w http.ResponseWriter) {
	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(e.Status)
	_, _ = w.Write(e.Body)
}

// Key normalizes a URL or path to the form requests are matched by.
func Key(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("bad asset url %q: %w", raw, err)
	}
	return u.RequestURI(), nil
}

// Cache is one named set of entries.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func newCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Match looks key up exactly.
func (c *Cache) Match(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores e under key.
func (c *Cache) Put(key string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Keys returns the stored keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// AddAll fetches every url concurrently and stores them only if all
// succeed. On any failure the cache is left untouched.
func (c *Cache) AddAll(ctx context.Context, f Fetcher, urls []string) error {
	keys := make([]string, len(urls))
	for i, u := range urls {
		k, err := Key(u)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	entries := make([]*Entry, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			e, err := f.Fetch(gctx, u)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", u, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range keys {
		c.entries[k] = entries[i]
	}
	return nil
}

// Storage is the set of named caches, kept in creation order.
type Storage struct {
	mu     sync.RWMutex
	caches map[string]*Cache
	order  []string
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{caches: make(map[string]*Cache)}
}

// Open returns the cache called name, creating it if needed.
func (s *Storage) Open(name string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[name]; ok {
		return c
	}
	c := newCache()
	s.caches[name] = c
	s.order = append(s.order, name)
	return c
}

// Has reports whether a cache called name exists.
func (s *Storage) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.caches[name]
	return ok
}

// Delete removes the cache called name and reports whether it existed.
func (s *Storage) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caches[name]; !ok {
		return false
	}
	delete(s.caches, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the cache names in creation order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Match searches every cache, oldest first, for key.
func (s *Storage) Match(key string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.order {
		if e, ok := s.caches[name].Match(key); ok {
			return e, true
		}
	}
	return nil, false
}
