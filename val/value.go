package val

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Kind identifies the variant of a structured Value.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindU32
	KindI32
	KindU64
	KindI64
	KindTimepoint
	KindDuration
	KindU128
	KindI128
	KindU256
	KindI256
	KindBytes
	KindString
	KindSymbol
	KindVec
	KindMap
	KindAddress
	KindError
)

var kindNames = [...]string{
	"void", "bool", "u32", "i32", "u64", "i64", "timepoint", "duration",
	"u128", "i128", "u256", "i256", "bytes", "string", "symbol",
	"vec", "map", "address", "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a structured value passable across the host boundary.
type Value interface {
	Kind() Kind
}

type (
	// Unit is the Void value.
	Unit      struct{}
	Bool      bool
	U32       uint32
	I32       int32
	U64       uint64
	I64       int64
	Timepoint uint64
	Duration  uint64
	String    string
	Bytes     []byte
	Vec       []Value
	Map       []MapEntry
)

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

func (Unit) Kind() Kind      { return KindVoid }
func (Bool) Kind() Kind      { return KindBool }
func (U32) Kind() Kind       { return KindU32 }
func (I32) Kind() Kind       { return KindI32 }
func (U64) Kind() Kind       { return KindU64 }
func (I64) Kind() Kind       { return KindI64 }
func (Timepoint) Kind() Kind { return KindTimepoint }
func (Duration) Kind() Kind  { return KindDuration }
func (U128) Kind() Kind      { return KindU128 }
func (I128) Kind() Kind      { return KindI128 }
func (U256) Kind() Kind      { return KindU256 }
func (I256) Kind() Kind      { return KindI256 }
func (Bytes) Kind() Kind     { return KindBytes }
func (String) Kind() Kind    { return KindString }
func (Symbol) Kind() Kind    { return KindSymbol }
func (Vec) Kind() Kind       { return KindVec }
func (Map) Kind() Kind       { return KindMap }
func (Address) Kind() Kind   { return KindAddress }
func (Error) Kind() Kind     { return KindError }

// Host object forms of the variants that may not fit inline.
func (U64) ObjectTag() Tag       { return TagU64Object }
func (I64) ObjectTag() Tag       { return TagI64Object }
func (Timepoint) ObjectTag() Tag { return TagTimepointObject }
func (Duration) ObjectTag() Tag  { return TagDurationObject }
func (U128) ObjectTag() Tag      { return TagU128Object }
func (I128) ObjectTag() Tag      { return TagI128Object }
func (U256) ObjectTag() Tag      { return TagU256Object }
func (I256) ObjectTag() Tag      { return TagI256Object }
func (Bytes) ObjectTag() Tag     { return TagBytesObject }
func (String) ObjectTag() Tag    { return TagStringObject }
func (Symbol) ObjectTag() Tag    { return TagSymbolObject }
func (Address) ObjectTag() Tag   { return TagAddressObject }

// Get returns the value stored under key, if any.
func (m Map) Get(key Value) (Value, bool) {
	for _, e := range m {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Sorted returns a copy of m ordered by key.
func (m Map) Sorted() Map {
	out := slices.Clone(m)
	slices.SortStableFunc(out, func(a, b MapEntry) int { return Compare(a.Key, b.Key) })
	return out
}

// Equal reports domain equality: numeric and byte-wise equality for
// scalars, element-wise for vectors, and order-insensitive for maps.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case Vec:
		y := b.(Vec)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for _, e := range x {
			v, ok := y.Get(e.Key)
			if !ok || !Equal(e.Value, v) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Compare is a total order over values: by kind first, then by content.
// Maps compare by their key-sorted entries.
func Compare(a, b Value) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}
	switch x := a.(type) {
	case Unit:
		return 0
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		}
		return 1
	case U32:
		return cmp.Compare(x, b.(U32))
	case I32:
		return cmp.Compare(x, b.(I32))
	case U64:
		return cmp.Compare(x, b.(U64))
	case I64:
		return cmp.Compare(x, b.(I64))
	case Timepoint:
		return cmp.Compare(x, b.(Timepoint))
	case Duration:
		return cmp.Compare(x, b.(Duration))
	case U128:
		return x.Big().Cmp(b.(U128).Big())
	case I128:
		return x.Big().Cmp(b.(I128).Big())
	case U256:
		return x.Big().Cmp(b.(U256).Big())
	case I256:
		return x.Big().Cmp(b.(I256).Big())
	case Bytes:
		return bytes.Compare(x, b.(Bytes))
	case String:
		return strings.Compare(string(x), string(b.(String)))
	case Symbol:
		return strings.Compare(string(x), string(b.(Symbol)))
	case Address:
		y := b.(Address)
		if c := cmp.Compare(x.Type, y.Type); c != 0 {
			return c
		}
		return bytes.Compare(x.ID[:], y.ID[:])
	case Error:
		y := b.(Error)
		if c := cmp.Compare(x.Type, y.Type); c != 0 {
			return c
		}
		return cmp.Compare(x.Code, y.Code)
	case Vec:
		y := b.(Vec)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(x), len(y))
	case Map:
		xs, ys := x.Sorted(), b.(Map).Sorted()
		for i := 0; i < len(xs) && i < len(ys); i++ {
			if c := Compare(xs[i].Key, ys[i].Key); c != 0 {
				return c
			}
			if c := Compare(xs[i].Value, ys[i].Value); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(xs), len(ys))
	}
	return 0
}

// Format renders v for humans.
func Format(v Value) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func format(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case Unit:
		b.WriteString("void")
	case Bool:
		fmt.Fprintf(b, "%t", bool(x))
	case U32:
		fmt.Fprintf(b, "%du32", uint32(x))
	case I32:
		fmt.Fprintf(b, "%di32", int32(x))
	case U64:
		fmt.Fprintf(b, "%du64", uint64(x))
	case I64:
		fmt.Fprintf(b, "%di64", int64(x))
	case Timepoint:
		fmt.Fprintf(b, "timepoint(%d)", uint64(x))
	case Duration:
		fmt.Fprintf(b, "duration(%d)", uint64(x))
	case U128:
		b.WriteString(x.String() + "u128")
	case I128:
		b.WriteString(x.String() + "i128")
	case U256:
		b.WriteString(x.String() + "u256")
	case I256:
		b.WriteString(x.String() + "i256")
	case Bytes:
		fmt.Fprintf(b, "0x%x", []byte(x))
	case String:
		fmt.Fprintf(b, "%q", string(x))
	case Symbol:
		b.WriteString(string(x))
	case Address:
		b.WriteString(x.String())
	case Error:
		b.WriteString(x.Error())
	case Vec:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, e)
		}
		b.WriteByte(']')
	case Map:
		b.WriteByte('{')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, e.Key)
			b.WriteString(": ")
			format(b, e.Value)
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%v", v)
	}
}
