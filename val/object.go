package val

import (
	"github.com/wippyai/contract-sdk/errors"
)

// Object is host-owned data referenced from a Val by handle.
type Object interface {
	ObjectTag() Tag
}

// VecObject is the host form of a vector: already-lowered elements.
type VecObject []Val

// MapObject is the host form of a map in insertion order.
type MapObject []ValEntry

// ValEntry is one key/value pair of a MapObject.
type ValEntry struct {
	Key   Val
	Value Val
}

func (VecObject) ObjectTag() Tag { return TagVecObject }
func (MapObject) ObjectTag() Tag { return TagMapObject }

// ObjectStore allocates and resolves host objects.
// NewObject may refuse an allocation; Object fails for unknown or
// non-object handles.
type ObjectStore interface {
	NewObject(obj Object) (Val, error)
	Object(v Val) (Object, error)
}

// Alloc stores obj and reports refusals as HostAllocationFailed.
func Alloc(store ObjectStore, obj Object) (Val, error) {
	if store == nil {
		return 0, errors.HostAllocationFailed(errors.PhaseEncode, obj.ObjectTag().String(), nil)
	}
	v, err := store.NewObject(obj)
	if err != nil {
		return 0, errors.HostAllocationFailed(errors.PhaseEncode, obj.ObjectTag().String(), err)
	}
	return v, nil
}

// Resolve fetches the object behind v and checks it has the type T.
func Resolve[T Object](store ObjectStore, v Val) (T, error) {
	var zero T
	if !v.IsObject() {
		return zero, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Shape(v.Tag().String()).Detail("not an object").Build()
	}
	if store == nil {
		return zero, errors.New(errors.PhaseDecode, errors.KindNotFound).
			Detail("no object store to resolve %s", v).Build()
	}
	obj, err := store.Object(v)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok || obj.ObjectTag() != v.Tag() {
		return zero, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Shape(v.Tag().String()).Detail("handle %d holds %s", v.Handle(), obj.ObjectTag()).Build()
	}
	return t, nil
}
