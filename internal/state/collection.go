package state

import (
	"context"
	"sync"
)

// Fetcher performs the read behind a collection
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a consistent view of a collection
type Snapshot[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

type mutation[T any, K comparable] func(items []T, key func(T) K) []T

// Collection is a client-held list fetched per trigger key and mutated
// optimistically by the code that issues remote writes.
//
// Every fetch takes a new request token and only the latest one may write
// its result. Local mutations made while that fetch is in flight are kept in
// a journal and replayed on top of the fetched rows, so a slow fetch never
// erases a newer optimistic write.
type Collection[T any, K comparable] struct {
	scope *Scope
	key   func(T) K

	mu      sync.Mutex
	items   []T
	loading bool
	err     string
	trigger string
	fetch   Fetcher[T]
	token   uint64
	pending bool
	journal []mutation[T, K]
}

// NewCollection creates an empty collection bound to scope. key identifies
// an element; keys are unique within the collection.
func NewCollection[T any, K comparable](scope *Scope, key func(T) K) *Collection[T, K] {
	return &Collection[T, K]{scope: scope, key: key}
}

// Load fetches when trigger differs from the last one. An empty trigger
// means there is nothing to fetch for: the list is cleared and any
// in-flight fetch is discarded.
func (c *Collection[T, K]) Load(trigger string, fetch Fetcher[T]) {
	c.mu.Lock()
	if trigger == c.trigger && c.fetch != nil {
		c.mu.Unlock()
		return
	}
	c.trigger = trigger
	c.fetch = fetch
	c.mu.Unlock()

	if trigger == "" {
		c.scope.guard(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.token++
			c.pending = false
			c.items = nil
			c.loading = false
			c.err = ""
			c.journal = nil
		})
		return
	}
	c.Refetch()
}

// Refetch repeats the last fetch regardless of the trigger
func (c *Collection[T, K]) Refetch() {
	c.refetch(false)
}

// RefetchSilently repeats the last fetch without touching the loading flag
// and keeps the current rows when it fails
func (c *Collection[T, K]) RefetchSilently() {
	c.refetch(true)
}

func (c *Collection[T, K]) refetch(silent bool) {
	var (
		token uint64
		fetch Fetcher[T]
	)
	ok := c.scope.guard(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.trigger == "" || c.fetch == nil {
			return
		}
		c.token++
		token = c.token
		fetch = c.fetch
		c.pending = true
		c.journal = nil
		if !silent {
			c.loading = true
			c.err = ""
		}
	})
	if !ok || fetch == nil {
		return
	}

	c.scope.Go(func(ctx context.Context) {
		rows, err := fetch(ctx)
		c.scope.guard(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if token != c.token {
				return
			}
			c.pending = false
			c.loading = false
			if err != nil {
				if !silent {
					c.err = Message(err)
				}
				c.journal = nil
				return
			}
			items := append([]T(nil), rows...)
			for _, m := range c.journal {
				items = m(items, c.key)
			}
			c.items = items
			c.journal = nil
		})
	})
}

// Snapshot returns a copy of the current state
func (c *Collection[T, K]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{Items: append([]T(nil), c.items...), Loading: c.loading, Err: c.err}
}

// Items returns a copy of the current rows
func (c *Collection[T, K]) Items() []T {
	return c.Snapshot().Items
}

// Loading reports whether a visible fetch is in flight
func (c *Collection[T, K]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err is the message of the last failed fetch
func (c *Collection[T, K]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Find returns the element with key k
func (c *Collection[T, K]) Find(k K) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if c.key(it) == k {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Prepend puts item at the head, dropping any older element with its key
func (c *Collection[T, K]) Prepend(item T) {
	c.apply(func(items []T, key func(T) K) []T {
		k := key(item)
		out := make([]T, 0, len(items)+1)
		out = append(out, item)
		for _, it := range items {
			if key(it) != k {
				out = append(out, it)
			}
		}
		return out
	})
}

// Replace swaps the element sharing item's key; absent keys are ignored
func (c *Collection[T, K]) Replace(item T) {
	c.apply(func(items []T, key func(T) K) []T {
		k := key(item)
		out := make([]T, len(items))
		for i, it := range items {
			if key(it) == k {
				it = item
			}
			out[i] = it
		}
		return out
	})
}

// Remove drops the elements with the given keys
func (c *Collection[T, K]) Remove(keys ...K) {
	drop := make(map[K]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	c.apply(func(items []T, key func(T) K) []T {
		out := make([]T, 0, len(items))
		for _, it := range items {
			if !drop[key(it)] {
				out = append(out, it)
			}
		}
		return out
	})
}

// Set replaces the whole list
func (c *Collection[T, K]) Set(items []T) {
	rows := append([]T(nil), items...)
	c.apply(func([]T, func(T) K) []T {
		return append([]T(nil), rows...)
	})
}

func (c *Collection[T, K]) apply(m mutation[T, K]) {
	c.scope.guard(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.items = m(c.items, c.key)
		if c.pending {
			c.journal = append(c.journal, m)
		}
	})
}
