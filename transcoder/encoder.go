package transcoder

import (
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/val"
)

type Encoder struct {
	compiler *Compiler
}

func NewEncoder() *Encoder {
	return &Encoder{compiler: defaultCompiler}
}

func NewEncoderWithCompiler(c *Compiler) *Encoder {
	return &Encoder{compiler: c}
}

// Encode converts v to a Val, allocating host objects in store for
// values that do not fit inline. A nil v encodes as Void.
func (e *Encoder) Encode(store val.ObjectStore, v any) (val.Val, error) {
	if v == nil {
		return val.Void, nil
	}
	rv := reflect.ValueOf(v)
	ct, err := e.compiler.Compile(rv.Type())
	if err != nil {
		return 0, err
	}
	return e.encode(store, ct, rv)
}

// EncodeValue encodes rv using a type compiled earlier.
func (e *Encoder) EncodeValue(store val.ObjectStore, ct *CompiledType, rv reflect.Value) (val.Val, error) {
	return e.encode(store, ct, rv)
}

func (e *Encoder) encode(store val.ObjectStore, ct *CompiledType, rv reflect.Value) (val.Val, error) {
	switch ct.Kind {
	case KindVoid:
		return val.Void, nil

	case KindBool:
		return val.FromBool(rv.Bool()), nil

	case KindU32:
		n, err := unsignedOf(rv, math.MaxUint32, "u32")
		if err != nil {
			return 0, err
		}
		return val.FromU32(uint32(n)), nil

	case KindI32:
		n, err := signedOf(rv, math.MinInt32, math.MaxInt32, "i32")
		if err != nil {
			return 0, err
		}
		return val.FromI32(int32(n)), nil

	case KindU64:
		n, err := unsignedOf(rv, math.MaxUint64, "u64")
		if err != nil {
			return 0, err
		}
		return val.Lower(store, val.U64(n))

	case KindI64:
		return val.Lower(store, val.I64(rv.Int()))

	case KindTimepoint:
		return val.Lower(store, val.Timepoint(rv.Uint()))

	case KindDuration:
		return val.Lower(store, val.Duration(rv.Uint()))

	case KindU128, KindI128, KindU256, KindI256, KindAddress:
		return val.Lower(store, rv.Interface().(val.Value))

	case KindBigInt:
		return encodeBigInt(store, rv)

	case KindString:
		return val.Lower(store, val.String(rv.String()))

	case KindSymbol:
		return val.LowerSymbol(store, rv.String())

	case KindBytes:
		return val.Lower(store, val.Bytes(append([]byte{}, rv.Bytes()...)))

	case KindBytesN:
		b := make([]byte, ct.Len)
		reflect.Copy(reflect.ValueOf(b), rv)
		return val.Lower(store, val.Bytes(b))

	case KindError:
		return val.FromError(rv.Interface().(val.Error)), nil

	case KindVal:
		w := rv.Interface().(val.Val)
		if !w.Valid() {
			return 0, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
				Shape(w.Tag().String()).Detail("malformed value 0x%016x", uint64(w)).Build()
		}
		return w, nil

	case KindValue:
		v, _ := rv.Interface().(val.Value)
		return val.Lower(store, v)

	case KindOption:
		if rv.IsNil() {
			return val.Void, nil
		}
		return e.encode(store, ct.ElemType, rv.Elem())

	case KindVec, KindArray:
		elems := make(val.VecObject, rv.Len())
		for i := range elems {
			w, err := e.encode(store, ct.ElemType, rv.Index(i))
			if err != nil {
				return 0, errors.WithPath(err, indexName(i))
			}
			elems[i] = w
		}
		return val.Alloc(store, elems)

	case KindMap:
		return e.encodeMap(store, ct, rv)

	case KindStruct:
		if ct.Layout == LayoutMap {
			return e.encodeFieldMap(store, ct, rv)
		}
		return e.encodeFields(store, ct, rv)

	case KindTuple:
		return e.encodeFields(store, ct, rv)

	case KindEnum:
		n, err := enumOf(ct, rv)
		if err != nil {
			return 0, err
		}
		return val.FromU32(n), nil

	case KindErrorEnum:
		n, err := enumOf(ct, rv)
		if err != nil {
			return 0, err
		}
		return val.FromError(val.ContractError(n)), nil

	case KindUnion:
		return e.encodeUnion(store, ct, rv)
	}

	return 0, errors.UnsupportedShape(errors.PhaseEncode, nil, ct.GoType.String(), "kind "+ct.Kind.String())
}

func (e *Encoder) encodeFields(store val.ObjectStore, ct *CompiledType, rv reflect.Value) (val.Val, error) {
	elems := make(val.VecObject, len(ct.Fields))
	for i, f := range ct.Fields {
		w, err := e.encode(store, f.Type, rv.Field(f.Index))
		if err != nil {
			return 0, errors.WithPath(err, f.Name)
		}
		elems[i] = w
	}
	return val.Alloc(store, elems)
}

func (e *Encoder) encodeFieldMap(store val.ObjectStore, ct *CompiledType, rv reflect.Value) (val.Val, error) {
	fields := append([]CompiledField{}, ct.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	entries := make(val.MapObject, len(fields))
	for i, f := range fields {
		k, err := val.LowerSymbol(store, f.Name)
		if err != nil {
			return 0, err
		}
		w, err := e.encode(store, f.Type, rv.Field(f.Index))
		if err != nil {
			return 0, errors.WithPath(err, f.Name)
		}
		entries[i] = val.ValEntry{Key: k, Value: w}
	}
	return val.Alloc(store, entries)
}

// encodeMap writes entries ordered by key so equal maps encode equally.
func (e *Encoder) encodeMap(store val.ObjectStore, ct *CompiledType, rv reflect.Value) (val.Val, error) {
	type keyed struct {
		key   val.Value
		entry val.ValEntry
	}
	items := make([]keyed, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := e.encode(store, ct.KeyType, iter.Key())
		if err != nil {
			return 0, errors.WithPath(err, "[key]")
		}
		w, err := e.encode(store, ct.ValueType, iter.Value())
		if err != nil {
			return 0, errors.WithPath(err, "[value]")
		}
		kv, err := val.Lift(store, k)
		if err != nil {
			return 0, err
		}
		items = append(items, keyed{key: kv, entry: val.ValEntry{Key: k, Value: w}})
	}
	sort.Slice(items, func(i, j int) bool { return val.Compare(items[i].key, items[j].key) < 0 })

	entries := make(val.MapObject, len(items))
	for i, it := range items {
		if i > 0 && val.Equal(items[i-1].key, it.key) {
			return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				GoType(ct.GoType.String()).
				Detail("keys collide at %s", val.Format(it.key)).Build()
		}
		entries[i] = it.entry
	}
	return val.Alloc(store, entries)
}

func (e *Encoder) encodeUnion(store val.ObjectStore, ct *CompiledType, rv reflect.Value) (val.Val, error) {
	var chosen *CompiledCase
	for i := range ct.Cases {
		c := &ct.Cases[i]
		if rv.Field(c.Index).IsNil() {
			continue
		}
		if chosen != nil {
			return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				GoType(ct.GoType.String()).
				Detail("union has both %s and %s set", chosen.Name, c.Name).Build()
		}
		chosen = c
	}
	if chosen == nil {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			GoType(ct.GoType.String()).Detail("union has no case set").Build()
	}

	sym, err := val.LowerSymbol(store, chosen.Name)
	if err != nil {
		return 0, err
	}
	elems := val.VecObject{sym}
	payload := rv.Field(chosen.Index).Elem()
	switch {
	case len(chosen.Types) == 0:
	case chosen.Payload.Kind == KindTuple:
		for _, f := range chosen.Payload.Fields {
			w, err := e.encode(store, f.Type, payload.Field(f.Index))
			if err != nil {
				return 0, errors.WithPath(err, chosen.Name, f.Name)
			}
			elems = append(elems, w)
		}
	default:
		w, err := e.encode(store, chosen.Payload, payload)
		if err != nil {
			return 0, errors.WithPath(err, chosen.Name)
		}
		elems = append(elems, w)
	}
	return val.Alloc(store, elems)
}

// encodeBigInt picks the narrowest of I128 and I256 that holds the value.
func encodeBigInt(store val.ObjectStore, rv reflect.Value) (val.Val, error) {
	b, _ := rv.Interface().(*big.Int)
	if b == nil {
		return 0, errors.NilPointer(errors.PhaseEncode, nil, "*big.Int")
	}
	if n, ok := val.I128FromBig(b); ok {
		return val.Lower(store, n)
	}
	if n, ok := val.I256FromBig(b); ok {
		return val.Lower(store, n)
	}
	return 0, errors.Range(errors.PhaseEncode, nil, b.String(), "i256")
}

func unsignedOf(rv reflect.Value, limit uint64, target string) (uint64, error) {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if n > limit {
			return 0, errors.Range(errors.PhaseEncode, nil, n, target)
		}
		return n, nil
	}
	n := rv.Int()
	if n < 0 || uint64(n) > limit {
		return 0, errors.Range(errors.PhaseEncode, nil, n, target)
	}
	return uint64(n), nil
}

func signedOf(rv reflect.Value, lo, hi int64, target string) (int64, error) {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if n > uint64(hi) {
			return 0, errors.Range(errors.PhaseEncode, nil, n, target)
		}
		return int64(n), nil
	}
	n := rv.Int()
	if n < lo || n > hi {
		return 0, errors.Range(errors.PhaseEncode, nil, n, target)
	}
	return n, nil
}

// enumOf returns the declared value held by rv.
func enumOf(ct *CompiledType, rv reflect.Value) (uint32, error) {
	n, err := unsignedOf(rv, math.MaxUint32, ct.Kind.String())
	if err != nil {
		return 0, err
	}
	if _, ok := ct.EnumValue(uint32(n)); !ok {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			GoType(ct.GoType.String()).Value(n).
			Detail("%d is not a declared %s value", n, ct.Name).Build()
	}
	return uint32(n), nil
}
