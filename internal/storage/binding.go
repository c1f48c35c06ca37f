package storage

import (
	"context"
	"sync"
)

// Binding mirrors one stored value in memory. Every holder of the same
// Binding sees a Set immediately, without re-reading the store. It does not
// observe writes made through other Bindings or directly on the Store.
type Binding[T any] struct {
	store Store
	key   string
	def   T

	mu     sync.RWMutex
	loaded bool
	value  T
}

// Bind returns a Binding for key in s with default def.
func Bind[T any](s Store, key string, def T) *Binding[T] {
	return &Binding[T]{store: s, key: key, def: def}
}

// Key returns the bound key.
func (b *Binding[T]) Key() string { return b.key }

// Value returns the mirrored value, loading it from the store on first use.
func (b *Binding[T]) Value(ctx context.Context) T {
	b.mu.RLock()
	if b.loaded {
		v := b.value
		b.mu.RUnlock()
		return v
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		b.value = Get(ctx, b.store, b.key, b.def)
		b.loaded = true
	}
	return b.value
}

// Set writes v through to the store, then updates the mirror. The mirror is
// left unchanged when the write fails.
func (b *Binding[T]) Set(ctx context.Context, v T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := Set(ctx, b.store, b.key, v); err != nil {
		return err
	}
	b.value = v
	b.loaded = true
	return nil
}

// Remove deletes the stored value and resets the mirror to the default.
func (b *Binding[T]) Remove(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := Remove(ctx, b.store, b.key); err != nil {
		return err
	}
	b.value = b.def
	b.loaded = true
	return nil
}
