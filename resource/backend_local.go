package resource

import (
	"errors"
	"iter"
	"sync"

	"github.com/wippyai/contract-sdk/val"
)

var (
	ErrClosed = errors.New("object backend closed")
	ErrFull   = errors.New("object table limit reached")
)

// LocalBackend keeps objects in a slice indexed by handle-1. Freed slots
// are reused newest first.
type LocalBackend struct {
	mu     sync.RWMutex
	slots  []val.Object // nil marks a free slot
	free   []Handle
	limit  int
	live   int
	closed bool
}

// NewLocalBackend creates a backend holding at most limit live objects,
// or any number when limit is zero.
func NewLocalBackend(limit int) *LocalBackend {
	return &LocalBackend{limit: limit}
}

// Create stores obj under a fresh or recycled handle.
func (b *LocalBackend) Create(obj val.Object) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.closed:
		return 0, ErrClosed
	case b.limit > 0 && b.live >= b.limit:
		return 0, ErrFull
	}
	b.live++
	if n := len(b.free); n > 0 {
		h := b.free[n-1]
		b.free = b.free[:n-1]
		b.slots[h-1] = obj
		return h, nil
	}
	b.slots = append(b.slots, obj)
	return Handle(len(b.slots)), nil
}

func (b *LocalBackend) at(h Handle) val.Object {
	if h == 0 || int(h) > len(b.slots) {
		return nil
	}
	return b.slots[h-1]
}

// Get returns the object under h.
func (b *LocalBackend) Get(h Handle) (val.Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj := b.at(h)
	return obj, obj != nil
}

// Drop frees h and returns the object it held.
func (b *LocalBackend) Drop(h Handle) (val.Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj := b.at(h)
	if obj == nil {
		return nil, false
	}
	b.slots[h-1] = nil
	b.free = append(b.free, h)
	b.live--
	return obj, true
}

// Close forgets every object and refuses further allocations.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.slots, b.free, b.live = nil, nil, 0
	return nil
}

// Len returns the number of live objects.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// All yields live objects in handle order. The backend is read-locked
// while iterating, so the loop body must not create or drop objects.
func (b *LocalBackend) All() iter.Seq2[Handle, val.Object] {
	return func(yield func(Handle, val.Object) bool) {
		b.mu.RLock()
		defer b.mu.RUnlock()
		for i, obj := range b.slots {
			if obj != nil && !yield(Handle(i+1), obj) {
				return
			}
		}
	}
}
