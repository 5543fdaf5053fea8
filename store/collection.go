package store

import "context"

// Collection is a JSON array stored under one key.
type Collection[T any] struct {
	store    *Store
	key      string
	defaults func() []T
}

// NewCollection binds key. defaults, when non-nil, is what a missing key
// reads as; otherwise a missing key is an empty list.
func NewCollection[T any](s *Store, key string, defaults func() []T) *Collection[T] {
	return &Collection[T]{store: s, key: key, defaults: defaults}
}

func (c *Collection[T]) fallback() []T {
	if c.defaults == nil {
		return []T{}
	}
	return c.defaults()
}

// Load reads the list inside an existing transaction.
func (c *Collection[T]) Load(tx *Tx) ([]T, error) {
	items, err := Load(tx, c.key, c.fallback())
	if items == nil {
		items = []T{}
	}
	return items, err
}

// Save writes the list inside an existing transaction.
func (c *Collection[T]) Save(tx *Tx, items []T) error {
	if items == nil {
		items = []T{}
	}
	return Save(tx, c.key, items)
}

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	items, err := Get(ctx, c.store, c.key, c.fallback())
	if items == nil {
		items = []T{}
	}
	return items, err
}

// Filter returns the items for which match is true, in stored order.
func (c *Collection[T]) Filter(ctx context.Context, match func(T) bool) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Find returns the first item matching.
func (c *Collection[T]) Find(ctx context.Context, match func(T) bool) (T, bool, error) {
	var zero T
	items, err := c.All(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if match(item) {
			return item, true, nil
		}
	}
	return zero, false, nil
}

func (c *Collection[T]) Append(ctx context.Context, items ...T) error {
	return c.Mutate(ctx, func(current []T) ([]T, error) {
		return append(current, items...), nil
	})
}

// Put applies update to every item matching and returns how many changed.
func (c *Collection[T]) Put(ctx context.Context, match func(T) bool, update func(*T)) (int, error) {
	n := 0
	err := c.Mutate(ctx, func(current []T) ([]T, error) {
		for i := range current {
			if match(current[i]) {
				update(&current[i])
				n++
			}
		}
		return current, nil
	})
	return n, err
}

// Remove drops every item matching and returns how many were removed.
func (c *Collection[T]) Remove(ctx context.Context, match func(T) bool) (int, error) {
	n := 0
	err := c.Mutate(ctx, func(current []T) ([]T, error) {
		kept := current[:0]
		for _, item := range current {
			if match(item) {
				n++
				continue
			}
			kept = append(kept, item)
		}
		return kept, nil
	})
	return n, err
}

// Mutate replaces the list with fn's result. Returning an error leaves the
// stored list untouched.
func (c *Collection[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	return c.store.Atomic(ctx, func(tx *Tx) error {
		current, err := c.Load(tx)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return c.Save(tx, next)
	})
}
