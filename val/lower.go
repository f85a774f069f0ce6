package val

import (
	"github.com/wippyai/contract-sdk/errors"
)

// MaxDepth bounds container nesting when lifting values from a store.
const MaxDepth = 128

// Lower converts v to its wire form, allocating host objects for
// variants that do not fit inline.
func Lower(store ObjectStore, v Value) (Val, error) {
	switch x := v.(type) {
	case nil, Unit:
		return Void, nil
	case Bool:
		return FromBool(bool(x)), nil
	case U32:
		return FromU32(uint32(x)), nil
	case I32:
		return FromI32(int32(x)), nil
	case U64:
		if w, ok := SmallUnsigned(TagU64Small, uint64(x)); ok {
			return w, nil
		}
		return Alloc(store, x)
	case I64:
		if w, ok := SmallSigned(TagI64Small, int64(x)); ok {
			return w, nil
		}
		return Alloc(store, x)
	case Timepoint:
		if w, ok := SmallUnsigned(TagTimepointSmall, uint64(x)); ok {
			return w, nil
		}
		return Alloc(store, x)
	case Duration:
		if w, ok := SmallUnsigned(TagDurationSmall, uint64(x)); ok {
			return w, nil
		}
		return Alloc(store, x)
	case U128:
		if n, ok := x.small(); ok {
			return fromBody(TagU128Small, n), nil
		}
		return Alloc(store, x)
	case I128:
		if n, ok := x.small(); ok {
			return fromBody(TagI128Small, uint64(n)&bodyMax), nil
		}
		return Alloc(store, x)
	case U256:
		if n, ok := x.small(); ok {
			return fromBody(TagU256Small, n), nil
		}
		return Alloc(store, x)
	case I256:
		if n, ok := x.small(); ok {
			return fromBody(TagI256Small, uint64(n)&bodyMax), nil
		}
		return Alloc(store, x)
	case Symbol:
		return LowerSymbol(store, string(x))
	case String:
		return Alloc(store, x)
	case Bytes:
		return Alloc(store, x)
	case Address:
		return Alloc(store, x)
	case Error:
		return FromError(x), nil
	case Vec:
		elems := make(VecObject, len(x))
		for i, e := range x {
			w, err := Lower(store, e)
			if err != nil {
				return 0, err
			}
			elems[i] = w
		}
		return Alloc(store, elems)
	case Map:
		entries := make(MapObject, len(x))
		for i, e := range x {
			for _, prev := range x[:i] {
				if Equal(prev.Key, e.Key) {
					return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
						Detail("duplicate map key %s", Format(e.Key)).Build()
				}
			}
			k, err := Lower(store, e.Key)
			if err != nil {
				return 0, err
			}
			w, err := Lower(store, e.Value)
			if err != nil {
				return 0, err
			}
			entries[i] = ValEntry{Key: k, Value: w}
		}
		return Alloc(store, entries)
	}
	return 0, errors.New(errors.PhaseEncode, errors.KindUnsupportedShape).
		Detail("unknown value %T", v).Build()
}

// LowerSymbol encodes s inline when it fits SymbolSmall. Anything longer
// or outside the symbol alphabet becomes a String object.
func LowerSymbol(store ObjectStore, s string) (Val, error) {
	if w, ok := SmallSymbol(s); ok {
		return w, nil
	}
	return Alloc(store, String(s))
}

// Lift converts a wire value back to its structured form.
func Lift(store ObjectStore, v Val) (Value, error) {
	return lift(store, v, 0)
}

func lift(store ObjectStore, v Val, depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, errors.New(errors.PhaseDecode, errors.KindRange).
			Detail("nesting deeper than %d", MaxDepth).Build()
	}
	if !v.Valid() {
		return nil, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Shape(v.Tag().String()).Detail("malformed value 0x%016x", uint64(v)).Build()
	}
	switch t := v.Tag(); t {
	case TagFalse:
		return Bool(false), nil
	case TagTrue:
		return Bool(true), nil
	case TagVoid:
		return Unit{}, nil
	case TagError:
		e, _ := v.AsError()
		return e, nil
	case TagU32:
		return U32(v.Major()), nil
	case TagI32:
		return I32(int32(v.Major())), nil
	case TagU64Small:
		return U64(v.Body()), nil
	case TagI64Small:
		return I64(v.smallSigned()), nil
	case TagTimepointSmall:
		return Timepoint(v.Body()), nil
	case TagDurationSmall:
		return Duration(v.Body()), nil
	case TagU128Small:
		return U128FromU64(v.Body()), nil
	case TagI128Small:
		return I128FromI64(v.smallSigned()), nil
	case TagU256Small:
		return U256FromU64(v.Body()), nil
	case TagI256Small:
		return I256FromI64(v.smallSigned()), nil
	case TagSymbolSmall:
		s, _ := v.SmallSymbolString()
		return Symbol(s), nil
	case TagU64Object:
		return Resolve[U64](store, v)
	case TagI64Object:
		return Resolve[I64](store, v)
	case TagTimepointObject:
		return Resolve[Timepoint](store, v)
	case TagDurationObject:
		return Resolve[Duration](store, v)
	case TagU128Object:
		return Resolve[U128](store, v)
	case TagI128Object:
		return Resolve[I128](store, v)
	case TagU256Object:
		return Resolve[U256](store, v)
	case TagI256Object:
		return Resolve[I256](store, v)
	case TagBytesObject:
		return Resolve[Bytes](store, v)
	case TagStringObject:
		return Resolve[String](store, v)
	case TagSymbolObject:
		return Resolve[Symbol](store, v)
	case TagAddressObject:
		return Resolve[Address](store, v)
	case TagVecObject:
		obj, err := Resolve[VecObject](store, v)
		if err != nil {
			return nil, err
		}
		out := make(Vec, len(obj))
		for i, e := range obj {
			x, err := lift(store, e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case TagMapObject:
		obj, err := Resolve[MapObject](store, v)
		if err != nil {
			return nil, err
		}
		out := make(Map, len(obj))
		for i, e := range obj {
			k, err := lift(store, e.Key, depth+1)
			if err != nil {
				return nil, err
			}
			x, err := lift(store, e.Value, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = MapEntry{Key: k, Value: x}
		}
		return out, nil
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Shape(v.Tag().String()).Detail("unknown tag").Build()
}
