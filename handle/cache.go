/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package handle

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

// Cache remembers resolved resource references by name for the lifetime of
// its owner. Entries are only dropped through Remove.
type Cache[R datastore.Resource] struct {
	mu       sync.Mutex
	entries  map[string]R
	kind     string
	resolve  func(name string) R
	creator  *Creator
	observer storagemodels.Observer
}

// NewCache creates a Cache for one resource kind. resolve mints an unverified
// reference for a name and must not perform I/O; a nil resolve makes every
// lookup fail with an invalid argument error.
func NewCache[R datastore.Resource](kind string, resolve func(name string) R, creator *Creator, observer storagemodels.Observer) *Cache[R] {
	if observer == nil {
		observer = storagemodels.NopObserver
	}
	return &Cache[R]{
		entries:  make(map[string]R),
		kind:     kind,
		resolve:  resolve,
		creator:  creator,
		observer: observer,
	}
}

// Get returns the cached reference for name, if any
func (c *Cache[R]) Get(name string) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.entries[name]
	return r, ok
}

// GetOrCreate returns the cached reference for name. On a miss it probes the
// backend; when the resource exists or createIfMissing is set, the creator
// provisions it and the reference is cached. When the resource is absent and
// createIfMissing is false it returns ok == false and caches nothing.
func (c *Cache[R]) GetOrCreate(ctx context.Context, name string, createIfMissing bool) (R, bool, error) {
	return c.GetOrCreateWith(ctx, name, c.resolve, createIfMissing)
}

// GetOrCreateWith is GetOrCreate with a per-call resolve, for references whose
// settings are only known at the call site, such as a subscription filter.
func (c *Cache[R]) GetOrCreateWith(ctx context.Context, name string, resolve func(name string) R, createIfMissing bool) (r R, ok bool, err error) {
	if name == "" {
		return r, false, errors.NewInvalidArgumentError(c.kind+" name", "the name can not be empty")
	}
	if resolve == nil {
		return r, false, errors.NewInvalidArgumentError("account", "the storage account is not resolved")
	}

	if cached, found := c.Get(name); found {
		c.observer.CacheHit(c.kind)
		return cached, true, nil
	}
	c.observer.CacheMiss(c.kind)

	ref := resolve(name)

	exists, err := ref.Exists(ctx)
	if err != nil {
		return r, false, errors.NewResourceUnavailableError(c.kind, name, err)
	}
	if !exists && !createIfMissing {
		return r, false, nil
	}

	if c.creator != nil {
		if err := c.creator.Create(ctx, c.kind, ref); err != nil {
			return r, false, err
		}
	}

	return c.store(name, ref), true, nil
}

// store inserts ref unless another caller got there first, and returns the cached value.
func (c *Cache[R]) store(name string, ref R) R {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, found := c.entries[name]; found {
		return existing
	}
	c.entries[name] = ref
	return ref
}

// Remove drops the cached reference for name and reports whether one was present.
func (c *Cache[R]) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.entries[name]; !found {
		return false
	}
	delete(c.entries, name)
	return true
}

// Names returns the cached names in sorted order
func (c *Cache[R]) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.entries))
	for k := range c.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached references
func (c *Cache[R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
