package spec

import (
	"strconv"
	"strings"
)

// Kind is the wire discriminator of a type shape.
type Kind uint8

const (
	KindVal       Kind = 0
	KindBool      Kind = 1
	KindVoid      Kind = 2
	KindError     Kind = 3
	KindU32       Kind = 4
	KindI32       Kind = 5
	KindU64       Kind = 6
	KindI64       Kind = 7
	KindTimepoint Kind = 8
	KindDuration  Kind = 9
	KindU128      Kind = 10
	KindI128      Kind = 11
	KindU256      Kind = 12
	KindI256      Kind = 13
	KindBytes     Kind = 14
	KindString    Kind = 16
	KindSymbol    Kind = 17
	KindAddress   Kind = 19

	KindOption Kind = 0x40
	KindResult Kind = 0x41
	KindVec    Kind = 0x42
	KindMap    Kind = 0x43
	KindTuple  Kind = 0x44
	KindBytesN Kind = 0x45
	KindArray  Kind = 0x46
	KindUDT    Kind = 0x50
)

var kindNames = map[Kind]string{
	KindVal:       "Val",
	KindBool:      "bool",
	KindVoid:      "void",
	KindError:     "Error",
	KindU32:       "u32",
	KindI32:       "i32",
	KindU64:       "u64",
	KindI64:       "i64",
	KindTimepoint: "Timepoint",
	KindDuration:  "Duration",
	KindU128:      "u128",
	KindI128:      "i128",
	KindU256:      "u256",
	KindI256:      "i256",
	KindBytes:     "Bytes",
	KindString:    "String",
	KindSymbol:    "Symbol",
	KindAddress:   "Address",
	KindOption:    "Option",
	KindResult:    "Result",
	KindVec:       "Vec",
	KindMap:       "Map",
	KindTuple:     "Tuple",
	KindBytesN:    "BytesN",
	KindArray:     "Array",
	KindUDT:       "UDT",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Known reports whether k is a defined shape kind.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// IsPrimitive reports whether k takes no operands.
func (k Kind) IsPrimitive() bool {
	return k.Known() && k < KindOption
}

// Type is a recursive type shape.
type Type struct {
	Elem  *Type  // Option, Vec, Array
	Key   *Type  // Map
	Value *Type  // Map
	Ok    *Type  // Result
	Err   *Type  // Result
	Items []Type // Tuple
	Name  string // UDT
	N     uint32 // BytesN, Array
	Kind  Kind
}

// Primitive shapes.
var (
	Val       = Type{Kind: KindVal}
	Bool      = Type{Kind: KindBool}
	Void      = Type{Kind: KindVoid}
	Error     = Type{Kind: KindError}
	U32       = Type{Kind: KindU32}
	I32       = Type{Kind: KindI32}
	U64       = Type{Kind: KindU64}
	I64       = Type{Kind: KindI64}
	Timepoint = Type{Kind: KindTimepoint}
	Duration  = Type{Kind: KindDuration}
	U128      = Type{Kind: KindU128}
	I128      = Type{Kind: KindI128}
	U256      = Type{Kind: KindU256}
	I256      = Type{Kind: KindI256}
	Bytes     = Type{Kind: KindBytes}
	String    = Type{Kind: KindString}
	Symbol    = Type{Kind: KindSymbol}
	Address   = Type{Kind: KindAddress}
)

// Option is an optional value; None travels as Void.
func Option(elem Type) Type { return Type{Kind: KindOption, Elem: &elem} }

// Result is only valid as a function output.
func Result(ok, err Type) Type { return Type{Kind: KindResult, Ok: &ok, Err: &err} }

func Vec(elem Type) Type { return Type{Kind: KindVec, Elem: &elem} }

func Map(key, value Type) Type { return Type{Kind: KindMap, Key: &key, Value: &value} }

func Tuple(items ...Type) Type { return Type{Kind: KindTuple, Items: items} }

// BytesN is a byte string of exactly n bytes.
func BytesN(n uint32) Type { return Type{Kind: KindBytesN, N: n} }

// Array is a Vec of exactly n elements.
func Array(elem Type, n uint32) Type { return Type{Kind: KindArray, Elem: &elem, N: n} }

// UDT references a struct, union, enum or error enum by name.
func UDT(name string) Type { return Type{Kind: KindUDT, Name: name} }

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindOption, KindVec:
		return t.Elem.Equal(*o.Elem)
	case KindArray:
		return t.N == o.N && t.Elem.Equal(*o.Elem)
	case KindResult:
		return t.Ok.Equal(*o.Ok) && t.Err.Equal(*o.Err)
	case KindMap:
		return t.Key.Equal(*o.Key) && t.Value.Equal(*o.Value)
	case KindTuple:
		if len(t.Items) != len(o.Items) {
			return false
		}
		for i := range t.Items {
			if !t.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case KindBytesN:
		return t.N == o.N
	case KindUDT:
		return t.Name == o.Name
	}
	return true
}

func (t Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Type) write(b *strings.Builder) {
	switch t.Kind {
	case KindOption, KindVec:
		b.WriteString(t.Kind.String())
		b.WriteByte('<')
		t.Elem.write(b)
		b.WriteByte('>')
	case KindArray:
		b.WriteString("Array<")
		t.Elem.write(b)
		b.WriteString(", ")
		b.WriteString(strconv.FormatUint(uint64(t.N), 10))
		b.WriteByte('>')
	case KindResult:
		b.WriteString("Result<")
		t.Ok.write(b)
		b.WriteString(", ")
		t.Err.write(b)
		b.WriteByte('>')
	case KindMap:
		b.WriteString("Map<")
		t.Key.write(b)
		b.WriteString(", ")
		t.Value.write(b)
		b.WriteByte('>')
	case KindTuple:
		b.WriteByte('(')
		for i, it := range t.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.write(b)
		}
		b.WriteByte(')')
	case KindBytesN:
		b.WriteString("BytesN<")
		b.WriteString(strconv.FormatUint(uint64(t.N), 10))
		b.WriteByte('>')
	case KindUDT:
		b.WriteString(t.Name)
	default:
		b.WriteString(t.Kind.String())
	}
}

// Walk calls fn for t and every nested shape, parents first.
func (t Type) Walk(fn func(Type)) {
	fn(t)
	switch t.Kind {
	case KindOption, KindVec, KindArray:
		t.Elem.Walk(fn)
	case KindResult:
		t.Ok.Walk(fn)
		t.Err.Walk(fn)
	case KindMap:
		t.Key.Walk(fn)
		t.Value.Walk(fn)
	case KindTuple:
		for _, it := range t.Items {
			it.Walk(fn)
		}
	}
}

// Depth returns the nesting depth of t; primitives have depth 1.
func (t Type) Depth() int {
	d := 0
	switch t.Kind {
	case KindOption, KindVec, KindArray:
		d = t.Elem.Depth()
	case KindResult:
		d = max(t.Ok.Depth(), t.Err.Depth())
	case KindMap:
		d = max(t.Key.Depth(), t.Value.Depth())
	case KindTuple:
		for _, it := range t.Items {
			d = max(d, it.Depth())
		}
	}
	return d + 1
}
