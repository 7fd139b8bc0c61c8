package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of keys a Cached store keeps.
const DefaultCacheSize = 64

type cacheEntry struct {
	value string
	ok    bool
}

// Cached is a read-through, write-through LRU cache in front of a Store.
type Cached struct {
	next  Store
	cache *lru.Cache
}

// NewCached wraps next with an LRU cache of size keys.
func NewCached(next Store, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		e := v.(cacheEntry)
		return e.value, e.ok, nil
	}
	value, ok, err := c.next.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Add(key, cacheEntry{value: value, ok: ok})
	return value, ok, nil
}

func (c *Cached) Set(ctx context.Context, key string, value *string) error {
	if err := c.next.Set(ctx, key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	if value == nil {
		c.cache.Add(key, cacheEntry{})
	} else {
		c.cache.Add(key, cacheEntry{value: *value, ok: true})
	}
	return nil
}

// List passes through to the wrapped store when it can list.
func (c *Cached) List(ctx context.Context, prefix string) ([]string, error) {
	if l, ok := c.next.(Lister); ok {
		return l.List(ctx, prefix)
	}
	return nil, nil
}

// Purge drops every cached entry.
func (c *Cached) Purge() { c.cache.Purge() }

// Close closes the wrapped store.
func (c *Cached) Close(ctx context.Context) error { return Close(ctx, c.next) }
