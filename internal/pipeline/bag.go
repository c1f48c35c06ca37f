// Package pipeline runs the ordered stages that prepare a navigation: each
// stage reads the slots earlier stages wrote into a per-request Bag, writes
// its own, and either continues or ends the navigation with a redirect or an
// authorization failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSlotMissing is returned when a slot is read before any stage wrote it.
var ErrSlotMissing = errors.New("pipeline: slot not populated")

// Slot is a typed name for one value in a Bag.
type Slot[T any] struct {
	name string
}

// NewSlot declares a slot. Names must be unique across the program.
func NewSlot[T any](name string) Slot[T] {
	return Slot[T]{name: name}
}

// Name returns the slot name used in stage Requires/Provides lists.
func (s Slot[T]) Name() string { return s.name }

// Put stores v in b.
func (s Slot[T]) Put(b *Bag, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[s.name] = v
}

// Get returns the value stored in b, or ErrSlotMissing.
func (s Slot[T]) Get(b *Bag) (T, error) {
	var zero T
	b.mu.Lock()
	v, ok := b.values[s.name]
	b.mu.Unlock()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrSlotMissing, s.name)
	}
	typed, ok := v.(T)
	if !ok {
		// nil interface values of pointer types land here
		if v == nil {
			return zero, nil
		}
		return zero, fmt.Errorf("pipeline: slot %s holds %T", s.name, v)
	}
	return typed, nil
}

// Bag is the per-navigation set of slot values. It is created fresh for each
// request and discarded with it.
type Bag struct {
	mu     sync.Mutex
	values map[string]any
}

// NewBag returns an empty Bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

// Has reports whether a slot with the given name was written.
func (b *Bag) Has(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.values[name]
	return ok
}

// Len returns the number of populated slots.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.values)
}

type bagKey struct{}

// WithBag returns ctx carrying b.
func WithBag(ctx context.Context, b *Bag) context.Context {
	return context.WithValue(ctx, bagKey{}, b)
}

// BagFromContext returns the Bag attached by Chain.Middleware, or nil.
func BagFromContext(ctx context.Context) *Bag {
	b, _ := ctx.Value(bagKey{}).(*Bag)
	return b
}
