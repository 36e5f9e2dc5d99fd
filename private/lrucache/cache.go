// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package lrucache implements a size-bounded cache whose entries expire
// after a fixed lifetime.
package lrucache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
)

var mon = monkit.Package()

// Options controls capacity and expiration of a Cache.
type Options struct {
	// Expiration is how long an entry stays valid after it was loaded,
	// regardless of use. A non-positive value means entries never expire.
	Expiration time.Duration

	// Capacity is how many entries are kept. A non-positive value disables
	// caching.
	Capacity int

	// Name tags the hit and miss events.
	Name string

	// Now overrides the clock. It is used by tests.
	Now func() time.Time
}

type entry[T any] struct {
	once   sync.Once
	loaded bool
	when   time.Time
	order  *list.Element
	value  T
}

// Cache caches values by string key with LRU eviction.
type Cache[T any] struct {
	opts Options

	mu    sync.Mutex
	data  map[string]*entry[T]
	order *list.List
}

// New returns an empty cache.
func New[T any](opts Options) *Cache[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache[T]{
		opts:  opts,
		data:  make(map[string]*entry[T]),
		order: list.New(),
	}
}

// Get returns the valid value cached for key, or calls load to produce one.
// Concurrent callers for the same key share one load. A failed load is not
// cached, so the next call tries again.
func (c *Cache[T]) Get(ctx context.Context, key string, load func() (T, error)) (value T, err error) {
	if c.opts.Capacity <= 0 {
		c.event(false)
		return load()
	}

	for {
		state := c.lookup(key)

		called := false
		state.once.Do(func() {
			called = true
			value, err = load()
			if err != nil {
				c.forget(key, state)
				return
			}
			state.value = value
			state.loaded = true
		})

		if called {
			c.event(false)
			return value, err
		}
		if state.loaded {
			c.event(true)
			return state.value, nil
		}
		// another caller's load failed; try again
		if err := ctx.Err(); err != nil {
			return value, err
		}
	}
}

// lookup returns the live entry for key, creating it when missing or expired.
func (c *Cache[T]) lookup(key string) *entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.data[key]
	if ok && c.expired(state) {
		c.remove(key, state)
		ok = false
	}
	if ok {
		c.order.MoveToFront(state.order)
		return state
	}

	for len(c.data) >= c.opts.Capacity {
		back := c.order.Back()
		c.remove(back.Value.(string), c.data[back.Value.(string)])
	}
	state = &entry[T]{
		when:  c.opts.Now(),
		order: c.order.PushFront(key),
	}
	c.data[key] = state
	return state
}

func (c *Cache[T]) expired(state *entry[T]) bool {
	return c.opts.Expiration > 0 && c.opts.Now().Sub(state.when) > c.opts.Expiration
}

func (c *Cache[T]) forget(key string, state *entry[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[key] == state {
		c.remove(key, state)
	}
}

// remove requires c.mu to be held.
func (c *Cache[T]) remove(key string, state *entry[T]) {
	delete(c.data, key)
	c.order.Remove(state.order)
}

// Delete drops key from the cache.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state, ok := c.data[key]; ok {
		c.remove(key, state)
	}
}

// Len returns the number of cached entries, including ones still loading.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *Cache[T]) event(hit bool) {
	if c.opts.Name == "" {
		return
	}
	tag := monkit.NewSeriesTag("name", c.opts.Name)
	if hit {
		mon.Event("cache_hit", tag)
	} else {
		mon.Event("cache_miss", tag)
	}
}
