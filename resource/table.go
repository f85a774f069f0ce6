package resource

import (
	"slices"
	"sync"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/val"
)

// Table is the host object table. It implements val.ObjectStore.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

var _ val.ObjectStore = (*Table)(nil)

// NewTable creates an unbounded table.
func NewTable() *Table {
	return NewLimitedTable(0)
}

// NewLimitedTable creates a table that refuses allocations once limit
// objects are live.
func NewLimitedTable(limit int) *Table {
	return &Table{backend: NewLocalBackend(limit)}
}

// NewObject stores obj and returns an object Val referencing it.
func (t *Table) NewObject(obj val.Object) (val.Val, error) {
	tag := obj.ObjectTag()
	if !tag.IsObject() {
		return 0, errors.InvalidInput(errors.PhaseHost, "not an object tag: "+tag.String())
	}
	handle, err := t.backend.Create(obj)
	if err != nil {
		return 0, err
	}
	t.notify(Event{Type: EventCreated, Handle: handle, Tag: tag, Object: obj})
	return val.FromHandle(tag, uint32(handle)), nil
}

// Object resolves an object Val. The Val's tag must match the stored object.
func (t *Table) Object(v val.Val) (val.Object, error) {
	if !v.IsObject() {
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Shape(v.Tag().String()).Detail("not an object").Build()
	}
	handle := Handle(v.Handle())
	obj, ok := t.backend.Get(handle)
	if !ok {
		return nil, errors.NotFound(errors.PhaseHost, "object", v.String())
	}
	if obj.ObjectTag() != v.Tag() {
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Shape(v.Tag().String()).Detail("handle %d holds %s", handle, obj.ObjectTag()).Build()
	}
	return obj, nil
}

// Remove frees the object v references. A Val whose tag does not match
// the stored object leaves it in place.
func (t *Table) Remove(v val.Val) (val.Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	handle := Handle(v.Handle())
	if obj, ok := t.backend.Get(handle); !ok || obj.ObjectTag() != v.Tag() {
		return nil, false
	}
	obj, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}
	t.notify(Event{Type: EventDropped, Handle: handle, Tag: v.Tag(), Object: obj})
	return obj, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer added with Subscribe.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = slices.DeleteFunc(t.observers, func(x Observer) bool { return x == o })
}

// Len returns the number of live objects.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear frees every object, notifying observers of each, and returns how
// many were freed.
func (t *Table) Clear() int {
	var vals []val.Val
	for h, obj := range t.backend.All() {
		vals = append(vals, val.FromHandle(obj.ObjectTag(), uint32(h)))
	}
	n := 0
	for _, v := range vals {
		if _, ok := t.Remove(v); ok {
			n++
		}
	}
	return n
}

// Close frees every object and refuses further allocations. Observers
// are not notified.
func (t *Table) Close() error {
	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
