package service

import "sync"

// collection is the in-memory state of one entity type, kept in display
// order. New entities go first when prepend is set, last otherwise.
type collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	idOf    func(T) string
	clone   func(T) T
	prepend bool
}

func newCollection[T any](idOf func(T) string, clone func(T) T, prepend bool) *collection[T] {
	return &collection[T]{idOf: idOf, clone: clone, prepend: prepend}
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	for i, v := range c.items {
		out[i] = c.clone(v)
	}
	return out
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) replace(items []T) {
	out := make([]T, len(items))
	for i, v := range items {
		out[i] = c.clone(v)
	}
	c.mu.Lock()
	c.items = out
	c.mu.Unlock()
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// indexOf 调用方需持有锁
func (c *collection[T]) indexOf(id string) int {
	for i, v := range c.items {
		if c.idOf(v) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) insertAt(i int, v T) {
	if i < 0 || i > len(c.items) {
		i = len(c.items)
	}
	c.items = append(c.items, v)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = v
}

func (c *collection[T]) insertNew(v T) {
	if c.prepend {
		c.insertAt(0, v)
		return
	}
	c.insertAt(len(c.items), v)
}

func (c *collection[T]) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *collection[T]) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.removeAt(i)
	}
}

// swap replaces the entity oldID with v in place. When oldID is gone v is
// inserted as new; an existing entity with the id of v is dropped first.
func (c *collection[T]) swap(oldID string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newID := c.idOf(v)
	if newID != oldID {
		if i := c.indexOf(newID); i >= 0 {
			c.removeAt(i)
		}
	}
	if i := c.indexOf(oldID); i >= 0 {
		c.items[i] = c.clone(v)
		return
	}
	c.insertNew(c.clone(v))
}
