package transcoder

import (
	"reflect"

	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/val"
)

// Encode converts v to a Val using the default compiler.
func Encode(store val.ObjectStore, v any) (val.Val, error) {
	return NewEncoder().Encode(store, v)
}

// Decode converts w into target, which must be a non-nil pointer.
func Decode(store val.ObjectStore, w val.Val, target any) error {
	return NewDecoder().Decode(store, w, target)
}

// Shape returns the interface spec shape of a Go type.
func Shape(goType reflect.Type) (spec.Type, error) {
	return defaultCompiler.Shape(goType)
}

// EncodeAs is Encode with the static type of v, so nil pointers, slices
// and maps keep their shape.
func EncodeAs[T any](store val.ObjectStore, v T) (val.Val, error) {
	ct, err := defaultCompiler.Compile(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	return NewEncoder().EncodeValue(store, ct, reflect.ValueOf(&v).Elem())
}

// DecodeAs decodes w into a new T.
func DecodeAs[T any](store val.ObjectStore, w val.Val) (T, error) {
	var out T
	err := Decode(store, w, &out)
	return out, err
}
