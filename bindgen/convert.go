package bindgen

import (
	"math/big"
	"reflect"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

// Case selects a union case for Client.Call: the case name and its
// payload values in order.
type Case struct {
	Name   string
	Values []any
}

var (
	caseType      = reflect.TypeFor[Case]()
	bigIntPtrType = reflect.TypeFor[*big.Int]()
)

// convert produces a value of ct.GoType from rv. Besides the exact type it
// accepts lossless integer conversions, strings for symbols, enum case
// names, pointers or plain values for options, slices and arrays for
// sequences and tuples, map[string]any for structs, and Case for unions.
func convert(rv reflect.Value, ct *transcoder.CompiledType) (reflect.Value, error) {
	if !rv.IsValid() {
		if ct.Kind == transcoder.KindOption || ct.Kind == transcoder.KindVoid {
			return reflect.Zero(ct.GoType), nil
		}
		return reflect.Value{}, mismatchOf(ct, "nil")
	}
	if rv.Kind() == reflect.Interface {
		return convert(rv.Elem(), ct)
	}
	if rv.Type() == ct.GoType {
		return rv, nil
	}

	switch ct.Kind {
	case transcoder.KindVoid:
		return reflect.Zero(ct.GoType), nil

	case transcoder.KindU32, transcoder.KindI32, transcoder.KindU64, transcoder.KindI64,
		transcoder.KindTimepoint, transcoder.KindDuration:
		return convertInteger(rv, ct)

	case transcoder.KindU128, transcoder.KindI128, transcoder.KindU256, transcoder.KindI256:
		return convertWide(rv, ct)

	case transcoder.KindEnum, transcoder.KindErrorEnum:
		if rv.Kind() == reflect.String {
			for _, c := range ct.Enum {
				if c.Name == rv.String() {
					return reflect.ValueOf(c.Value).Convert(ct.GoType), nil
				}
			}
			return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
				GoType(ct.Name).Detail("no case named %q", rv.String()).Build()
		}
		return convertInteger(rv, ct)

	case transcoder.KindString, transcoder.KindSymbol:
		if rv.Kind() == reflect.String {
			return rv.Convert(ct.GoType), nil
		}

	case transcoder.KindBool:
		if rv.Kind() == reflect.Bool {
			return rv.Convert(ct.GoType), nil
		}

	case transcoder.KindBytes:
		switch {
		case rv.Kind() == reflect.String:
			return reflect.ValueOf([]byte(rv.String())), nil
		case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
			return rv.Convert(ct.GoType), nil
		case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return reflect.ValueOf(b), nil
		}

	case transcoder.KindBytesN:
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.Len() != ct.Len {
				return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
					GoType(rv.Type().String()).Detail("want %d bytes, got %d", ct.Len, rv.Len()).Build()
			}
			out := reflect.New(ct.GoType).Elem()
			reflect.Copy(out, rv)
			return out, nil
		}

	case transcoder.KindOption:
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Zero(ct.GoType), nil
			}
			rv = rv.Elem()
		}
		inner, err := convert(rv, ct.ElemType)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(ct.ElemType.GoType)
		p.Elem().Set(inner)
		return p, nil

	case transcoder.KindVec, transcoder.KindArray:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		var out reflect.Value
		if ct.Kind == transcoder.KindVec {
			out = reflect.MakeSlice(ct.GoType, rv.Len(), rv.Len())
		} else {
			if rv.Len() != ct.Len {
				return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
					GoType(rv.Type().String()).Detail("want %d elements, got %d", ct.Len, rv.Len()).Build()
			}
			out = reflect.New(ct.GoType).Elem()
		}
		for i := 0; i < rv.Len(); i++ {
			e, err := convert(rv.Index(i), ct.ElemType)
			if err != nil {
				return reflect.Value{}, errors.WithPath(err, indexName(i))
			}
			out.Index(i).Set(e)
		}
		return out, nil

	case transcoder.KindMap:
		if rv.Kind() != reflect.Map {
			break
		}
		out := reflect.MakeMapWithSize(ct.GoType, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := convert(iter.Key(), ct.KeyType)
			if err != nil {
				return reflect.Value{}, errors.WithPath(err, "[key]")
			}
			v, err := convert(iter.Value(), ct.ValueType)
			if err != nil {
				return reflect.Value{}, errors.WithPath(err, "[value]")
			}
			out.SetMapIndex(k, v)
		}
		return out, nil

	case transcoder.KindTuple:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		if rv.Len() != len(ct.Fields) {
			return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
				Detail("tuple wants %d values, got %d", len(ct.Fields), rv.Len()).Build()
		}
		out := reflect.New(ct.GoType).Elem()
		for i, f := range ct.Fields {
			e, err := convert(rv.Index(i), f.Type)
			if err != nil {
				return reflect.Value{}, errors.WithPath(err, f.Name)
			}
			out.Field(f.Index).Set(e)
		}
		return out, nil

	case transcoder.KindStruct:
		if rv.Kind() == reflect.Struct && rv.Type().ConvertibleTo(ct.GoType) {
			return rv.Convert(ct.GoType), nil
		}
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := reflect.New(ct.GoType).Elem()
		for _, f := range ct.Fields {
			v := rv.MapIndex(reflect.ValueOf(f.Name).Convert(rv.Type().Key()))
			if !v.IsValid() {
				return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
					Path(f.Name).GoType(ct.Name).Detail("missing field").Build()
			}
			e, err := convert(v, f.Type)
			if err != nil {
				return reflect.Value{}, errors.WithPath(err, f.Name)
			}
			out.Field(f.Index).Set(e)
		}
		if rv.Len() != len(ct.Fields) {
			return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
				GoType(ct.Name).Detail("%d fields given, %s has %d", rv.Len(), ct.Name, len(ct.Fields)).Build()
		}
		return out, nil

	case transcoder.KindUnion:
		if rv.Type() != caseType {
			break
		}
		return convertCase(rv.Interface().(Case), ct)
	}
	return reflect.Value{}, mismatchOf(ct, rv.Type().String())
}

func convertCase(sel Case, ct *transcoder.CompiledType) (reflect.Value, error) {
	c, ok := ct.Case(sel.Name)
	if !ok {
		return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
			GoType(ct.Name).Detail("no union case %q", sel.Name).Build()
	}
	if len(sel.Values) != len(c.Types) {
		return reflect.Value{}, errors.New(errors.PhaseBindgen, errors.KindInvalidInput).
			Path(c.Name).Detail("case wants %d values, got %d", len(c.Types), len(sel.Values)).Build()
	}

	out := reflect.New(ct.GoType).Elem()
	field := out.Field(c.Index)
	p := reflect.New(field.Type().Elem())
	switch len(c.Types) {
	case 0:
	case 1:
		e, err := convert(reflect.ValueOf(sel.Values[0]), c.Payload)
		if err != nil {
			return reflect.Value{}, errors.WithPath(err, c.Name)
		}
		p.Elem().Set(e)
	default:
		e, err := convert(reflect.ValueOf(sel.Values), c.Payload)
		if err != nil {
			return reflect.Value{}, errors.WithPath(err, c.Name)
		}
		p.Elem().Set(e)
	}
	field.Set(p)
	return out, nil
}

func convertInteger(rv reflect.Value, ct *transcoder.CompiledType) (reflect.Value, error) {
	out := reflect.New(ct.GoType).Elem()
	switch {
	case rv.CanUint():
		n := rv.Uint()
		if isSigned(out) {
			if n > 1<<63-1 || out.OverflowInt(int64(n)) {
				return reflect.Value{}, errors.Range(errors.PhaseBindgen, nil, n, ct.Kind.String())
			}
			out.SetInt(int64(n))
		} else {
			if out.OverflowUint(n) {
				return reflect.Value{}, errors.Range(errors.PhaseBindgen, nil, n, ct.Kind.String())
			}
			out.SetUint(n)
		}
	case rv.CanInt():
		n := rv.Int()
		if isSigned(out) {
			if out.OverflowInt(n) {
				return reflect.Value{}, errors.Range(errors.PhaseBindgen, nil, n, ct.Kind.String())
			}
			out.SetInt(n)
		} else {
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, errors.Range(errors.PhaseBindgen, nil, n, ct.Kind.String())
			}
			out.SetUint(uint64(n))
		}
	default:
		return reflect.Value{}, mismatchOf(ct, rv.Type().String())
	}
	return out, nil
}

// convertWide accepts *big.Int and Go integers for the 128 and 256 bit
// kinds.
func convertWide(rv reflect.Value, ct *transcoder.CompiledType) (reflect.Value, error) {
	var n *big.Int
	switch {
	case rv.Type() == bigIntPtrType:
		n = rv.Interface().(*big.Int)
		if n == nil {
			return reflect.Value{}, errors.NilPointer(errors.PhaseBindgen, nil, "*big.Int")
		}
	case rv.CanInt():
		n = big.NewInt(rv.Int())
	case rv.CanUint():
		n = new(big.Int).SetUint64(rv.Uint())
	default:
		return reflect.Value{}, mismatchOf(ct, rv.Type().String())
	}

	var (
		v  val.Value
		ok bool
	)
	switch ct.Kind {
	case transcoder.KindU128:
		v, ok = val.U128FromBig(n)
	case transcoder.KindI128:
		v, ok = val.I128FromBig(n)
	case transcoder.KindU256:
		v, ok = val.U256FromBig(n)
	case transcoder.KindI256:
		v, ok = val.I256FromBig(n)
	}
	if !ok {
		return reflect.Value{}, errors.Range(errors.PhaseBindgen, nil, n.String(), ct.Kind.String())
	}
	return reflect.ValueOf(v), nil
}

func isSigned(rv reflect.Value) bool {
	return rv.CanInt()
}

func mismatchOf(ct *transcoder.CompiledType, have string) *errors.Error {
	want := ct.Kind.String()
	if ct.Name != "" {
		want = ct.Name
	}
	return errors.New(errors.PhaseBindgen, errors.KindTypeMismatch).
		GoType(have).Shape(want).Build()
}
