package types

import (
	"reflect"

	"github.com/wippyai/contract-sdk/spec"
)

// Layout selects the container used for struct fields. It is recorded in
// the struct's spec entry.
type Layout = spec.StructLayout

const (
	LayoutVec = spec.LayoutVec
	LayoutMap = spec.LayoutMap
)

type CompiledType struct {
	GoType    reflect.Type
	ElemType  *CompiledType // option, vec, array
	KeyType   *CompiledType // map
	ValueType *CompiledType // map
	Fields    []Field       // struct, tuple
	Cases     []Case        // union
	Enum      []EnumCase    // enum, error enum
	Name      string        // named kinds
	Doc       string
	Len       int // array, bytesn
	Layout    Layout
	Kind      Kind
}

type Field struct {
	Type  *CompiledType
	Name  string
	Doc   string
	Index int
}

// Case is a union variant backed by a pointer field. Types lists the
// payload elements written after the case symbol; Payload is the pointee
// type, which is a tuple when there is more than one element.
type Case struct {
	Payload *CompiledType
	Types   []*CompiledType
	Name    string
	Doc     string
	Index   int
}

type EnumCase struct {
	Name  string
	Doc   string
	Value uint32
}

func (ct *CompiledType) IsPrimitive() bool {
	return ct.Kind.IsPrimitive()
}

// EnumValue reports whether v is a declared enum value.
func (ct *CompiledType) EnumValue(v uint32) (EnumCase, bool) {
	for _, c := range ct.Enum {
		if c.Value == v {
			return c, true
		}
	}
	return EnumCase{}, false
}

// Case looks up a union case by name.
func (ct *CompiledType) Case(name string) (*Case, bool) {
	for i := range ct.Cases {
		if ct.Cases[i].Name == name {
			return &ct.Cases[i], true
		}
	}
	return nil, false
}

// Walk visits ct and every nested compiled type once, parents first.
// Recursive types are visited a single time.
func (ct *CompiledType) Walk(fn func(*CompiledType)) {
	ct.walk(fn, make(map[*CompiledType]bool))
}

func (ct *CompiledType) walk(fn func(*CompiledType), seen map[*CompiledType]bool) {
	if ct == nil || seen[ct] {
		return
	}
	seen[ct] = true
	fn(ct)
	ct.ElemType.walk(fn, seen)
	ct.KeyType.walk(fn, seen)
	ct.ValueType.walk(fn, seen)
	for _, f := range ct.Fields {
		f.Type.walk(fn, seen)
	}
	for _, c := range ct.Cases {
		for _, t := range c.Types {
			t.walk(fn, seen)
		}
	}
}
