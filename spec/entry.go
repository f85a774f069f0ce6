package spec

import "strconv"

// EntryKind is the wire tag of an entry.
type EntryKind uint8

const (
	EntryFunction  EntryKind = 0
	EntryStruct    EntryKind = 1
	EntryUnion     EntryKind = 2
	EntryEnum      EntryKind = 3
	EntryErrorEnum EntryKind = 4
	EntryEvent     EntryKind = 5
)

func (k EntryKind) String() string {
	switch k {
	case EntryFunction:
		return "function"
	case EntryStruct:
		return "struct"
	case EntryUnion:
		return "union"
	case EntryEnum:
		return "enum"
	case EntryErrorEnum:
		return "error_enum"
	case EntryEvent:
		return "event"
	}
	return "EntryKind(" + strconv.Itoa(int(k)) + ")"
}

// Entry is one item of an interface specification.
type Entry interface {
	EntryKind() EntryKind
	EntryName() string
}

// TypeEntry is an entry that UDT shapes can reference.
type TypeEntry interface {
	Entry
	isTypeEntry()
}

// Param is a named function input or event topic.
type Param struct {
	Doc  string
	Name string
	Type Type
}

// FunctionSpec describes an exported function. Outputs holds at most one
// shape; a function returning nothing has no outputs.
type FunctionSpec struct {
	Doc     string
	Name    string
	Inputs  []Param
	Outputs []Type
}

// Field is a named struct field.
type Field struct {
	Doc  string
	Name string
	Type Type
}

// StructLayout is the container a struct's fields travel in.
type StructLayout uint8

const (
	// LayoutVec encodes fields positionally in declaration order.
	LayoutVec StructLayout = iota
	// LayoutMap encodes fields in a Map keyed by field name symbols.
	LayoutMap
)

func (l StructLayout) String() string {
	switch l {
	case LayoutVec:
		return "vec"
	case LayoutMap:
		return "map"
	}
	return "StructLayout(" + strconv.Itoa(int(l)) + ")"
}

// StructSpec describes a struct type. Fields are in declaration order.
type StructSpec struct {
	Doc    string
	Lib    string
	Name   string
	Layout StructLayout
	Fields []Field
}

// UnionCase is a union variant with zero or more payload shapes.
type UnionCase struct {
	Doc   string
	Name  string
	Types []Type
}

// UnionSpec describes a tagged union.
type UnionSpec struct {
	Doc   string
	Lib   string
	Name  string
	Cases []UnionCase
}

// EnumCase is a named integer constant.
type EnumCase struct {
	Doc   string
	Name  string
	Value uint32
}

// EnumSpec describes a u32-backed enumeration.
type EnumSpec struct {
	Doc   string
	Lib   string
	Name  string
	Cases []EnumCase
}

// ErrorEnumSpec describes contract error codes.
type ErrorEnumSpec struct {
	Doc   string
	Lib   string
	Name  string
	Cases []EnumCase
}

// EventSpec describes a published event: fixed prefix topics, typed
// topics, and a data payload.
type EventSpec struct {
	Doc          string
	Lib          string
	Name         string
	PrefixTopics []string
	Topics       []Param
	Data         Type
}

func (*FunctionSpec) EntryKind() EntryKind  { return EntryFunction }
func (*StructSpec) EntryKind() EntryKind    { return EntryStruct }
func (*UnionSpec) EntryKind() EntryKind     { return EntryUnion }
func (*EnumSpec) EntryKind() EntryKind      { return EntryEnum }
func (*ErrorEnumSpec) EntryKind() EntryKind { return EntryErrorEnum }
func (*EventSpec) EntryKind() EntryKind     { return EntryEvent }

func (e *FunctionSpec) EntryName() string  { return e.Name }
func (e *StructSpec) EntryName() string    { return e.Name }
func (e *UnionSpec) EntryName() string     { return e.Name }
func (e *EnumSpec) EntryName() string      { return e.Name }
func (e *ErrorEnumSpec) EntryName() string { return e.Name }
func (e *EventSpec) EntryName() string     { return e.Name }

func (*StructSpec) isTypeEntry()    {}
func (*UnionSpec) isTypeEntry()     {}
func (*EnumSpec) isTypeEntry()      {}
func (*ErrorEnumSpec) isTypeEntry() {}

// Output returns the function's result shape, Void when it has none.
func (f *FunctionSpec) Output() Type {
	if len(f.Outputs) == 0 {
		return Void
	}
	return f.Outputs[0]
}

// Case returns the union case with the given name.
func (u *UnionSpec) Case(name string) (UnionCase, int, bool) {
	for i, c := range u.Cases {
		if c.Name == name {
			return c, i, true
		}
	}
	return UnionCase{}, -1, false
}

// shapes returns every top-level shape referenced by e.
func shapes(e Entry) []Type {
	var out []Type
	switch x := e.(type) {
	case *FunctionSpec:
		for _, p := range x.Inputs {
			out = append(out, p.Type)
		}
		out = append(out, x.Outputs...)
	case *StructSpec:
		for _, f := range x.Fields {
			out = append(out, f.Type)
		}
	case *UnionSpec:
		for _, c := range x.Cases {
			out = append(out, c.Types...)
		}
	case *EventSpec:
		for _, p := range x.Topics {
			out = append(out, p.Type)
		}
		out = append(out, x.Data)
	}
	return out
}
