// Package tilecache provides the LRU structure owning tile instances and
// the eviction policies driven by the renderer's per-frame working set.
package tilecache

import (
	"container/list"
	"iter"
)

type lruEntry[V any] struct {
	key   string
	value V
}

// LRU is an insertion-ordered map from string keys to values with a
// highWaterMark capacity that only ever grows. It is not safe for
// concurrent use; Cache adds locking on top.
type LRU[V any] struct {
	highWaterMark int
	entries       map[string]*list.Element
	order         *list.List // front = most recently used
}

// NewLRU creates an LRU with the given initial capacity.
func NewLRU[V any](highWaterMark int) *LRU[V] {
	return &LRU[V]{
		highWaterMark: highWaterMark,
		entries:       make(map[string]*list.Element),
		order:         list.New(),
	}
}

// Count returns the number of entries.
func (c *LRU[V]) Count() int {
	return len(c.entries)
}

// HighWaterMark returns the target capacity.
func (c *LRU[V]) HighWaterMark() int {
	return c.highWaterMark
}

// GrowHighWaterMark raises the target capacity to n. Smaller values are
// ignored; the capacity never shrinks.
func (c *LRU[V]) GrowHighWaterMark(n int) {
	if n > c.highWaterMark {
		c.highWaterMark = n
	}
}

// CanExpireCache reports whether the entry count exceeds the capacity.
func (c *LRU[V]) CanExpireCache() bool {
	return c.Count() > c.highWaterMark
}

// Set inserts or overwrites the entry and makes it most recently used.
func (c *LRU[V]) Set(key string, value V) {
	if e, ok := c.entries[key]; ok {
		e.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(e)
		return
	}
	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
}

// Get returns the entry and promotes it to most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(e)
	return e.Value.(*lruEntry[V]).value, true
}

// Peek returns the entry without promoting it.
func (c *LRU[V]) Peek(key string) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value.(*lruEntry[V]).value, true
}

// PeekLast returns the least-recently-used entry without promoting it.
func (c *LRU[V]) PeekLast() (V, bool) {
	e := c.order.Back()
	if e == nil {
		var zero V
		return zero, false
	}
	return e.Value.(*lruEntry[V]).value, true
}

// PeekLastKey returns the key of the least-recently-used entry.
func (c *LRU[V]) PeekLastKey() (string, bool) {
	e := c.order.Back()
	if e == nil {
		return "", false
	}
	return e.Value.(*lruEntry[V]).key, true
}

// PeekFirstKey returns the key of the most-recently-used entry.
func (c *LRU[V]) PeekFirstKey() (string, bool) {
	e := c.order.Front()
	if e == nil {
		return "", false
	}
	return e.Value.(*lruEntry[V]).key, true
}

// Pop removes and returns the least-recently-used entry.
func (c *LRU[V]) Pop() (V, bool) {
	e := c.order.Back()
	if e == nil {
		var zero V
		return zero, false
	}
	entry := e.Value.(*lruEntry[V])
	c.order.Remove(e)
	delete(c.entries, entry.key)
	return entry.value, true
}

// Remove deletes the entry and returns it.
func (c *LRU[V]) Remove(key string) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	entry := e.Value.(*lruEntry[V])
	c.order.Remove(e)
	delete(c.entries, key)
	return entry.value, true
}

// Replace swaps the value for an existing key without touching its
// position in the use order. It reports whether the key was present.
func (c *LRU[V]) Replace(key string, value V) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.Value.(*lruEntry[V]).value = value
	return true
}

// ContainsKey reports whether the key is present.
func (c *LRU[V]) ContainsKey(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Clear removes all entries without releasing anything.
func (c *LRU[V]) Clear() {
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// All iterates the entries from most to least recently used.
func (c *LRU[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for e := c.order.Front(); e != nil; e = e.Next() {
			entry := e.Value.(*lruEntry[V])
			if !yield(entry.key, entry.value) {
				return
			}
		}
	}
}
