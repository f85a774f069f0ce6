package transcoder

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/val"
)

type Decoder struct {
	compiler *Compiler
}

func NewDecoder() *Decoder {
	return &Decoder{compiler: defaultCompiler}
}

func NewDecoderWithCompiler(c *Compiler) *Decoder {
	return &Decoder{compiler: c}
}

// Decode converts w into the value pointed to by target.
func (d *Decoder) Decode(store val.ObjectStore, w val.Val, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.PhaseDecode, errors.KindNilPointer).
			GoType(fmt.Sprintf("%T", target)).
			Detail("target must be a non-nil pointer").Build()
	}
	ct, err := d.compiler.Compile(rv.Type().Elem())
	if err != nil {
		return err
	}
	return d.decode(store, ct, w, rv.Elem())
}

// DecodeValue decodes w into the settable rv using a type compiled earlier.
func (d *Decoder) DecodeValue(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value) error {
	return d.decode(store, ct, w, rv)
}

func (d *Decoder) decode(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value) error {
	if !w.Valid() {
		return mismatch(ct, w, "malformed value")
	}

	switch ct.Kind {
	case KindVoid:
		if w != val.Void {
			return mismatch(ct, w, "")
		}
		return nil

	case KindBool:
		b, ok := w.Bool()
		if !ok {
			return mismatch(ct, w, "")
		}
		rv.SetBool(b)
		return nil

	case KindU32, KindI32, KindU64, KindI64:
		n, err := integerOf(store, ct, w)
		if err != nil {
			return err
		}
		return setInteger(rv, n, ct.Kind.String())

	case KindU128:
		n, err := integerOf(store, ct, w)
		if err != nil {
			return err
		}
		x, ok := val.U128FromBig(n)
		if !ok {
			return errors.Range(errors.PhaseDecode, nil, n.String(), "u128")
		}
		rv.Set(reflect.ValueOf(x))
		return nil

	case KindI128:
		n, err := integerOf(store, ct, w)
		if err != nil {
			return err
		}
		x, ok := val.I128FromBig(n)
		if !ok {
			return errors.Range(errors.PhaseDecode, nil, n.String(), "i128")
		}
		rv.Set(reflect.ValueOf(x))
		return nil

	case KindU256:
		n, err := integerOf(store, ct, w)
		if err != nil {
			return err
		}
		x, ok := val.U256FromBig(n)
		if !ok {
			return errors.Range(errors.PhaseDecode, nil, n.String(), "u256")
		}
		rv.Set(reflect.ValueOf(x))
		return nil

	case KindI256:
		n, err := integerOf(store, ct, w)
		if err != nil {
			return err
		}
		x, ok := val.I256FromBig(n)
		if !ok {
			return errors.Range(errors.PhaseDecode, nil, n.String(), "i256")
		}
		rv.Set(reflect.ValueOf(x))
		return nil

	case KindBigInt:
		n, err := integerOf(store, ct, w)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(n))
		return nil

	case KindTimepoint:
		return d.decodeTime(store, ct, w, rv, val.TagTimepointSmall, val.TagTimepointObject)

	case KindDuration:
		return d.decodeTime(store, ct, w, rv, val.TagDurationSmall, val.TagDurationObject)

	case KindString, KindSymbol:
		// Symbols past the inline limit or alphabet travel as strings.
		switch w.Tag() {
		case val.TagStringObject, val.TagSymbolSmall, val.TagSymbolObject:
			s, err := symbolOf(store, w)
			if err != nil {
				return err
			}
			rv.SetString(s)
			return nil
		}
		return mismatch(ct, w, "")

	case KindBytes:
		if w.Tag() != val.TagBytesObject {
			return mismatch(ct, w, "")
		}
		b, err := val.Resolve[val.Bytes](store, w)
		if err != nil {
			return err
		}
		rv.SetBytes(append([]byte{}, b...))
		return nil

	case KindBytesN:
		if w.Tag() != val.TagBytesObject {
			return mismatch(ct, w, "")
		}
		b, err := val.Resolve[val.Bytes](store, w)
		if err != nil {
			return err
		}
		if len(b) != ct.Len {
			return mismatch(ct, w, "want %d bytes, got %d", ct.Len, len(b))
		}
		reflect.Copy(rv, reflect.ValueOf([]byte(b)))
		return nil

	case KindAddress:
		if w.Tag() != val.TagAddressObject {
			return mismatch(ct, w, "")
		}
		a, err := val.Resolve[val.Address](store, w)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(a))
		return nil

	case KindError:
		e, ok := w.AsError()
		if !ok {
			return mismatch(ct, w, "")
		}
		rv.Set(reflect.ValueOf(e))
		return nil

	case KindVal:
		rv.Set(reflect.ValueOf(w))
		return nil

	case KindValue:
		v, err := val.Lift(store, w)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(v))
		return nil

	case KindOption:
		if w == val.Void {
			rv.SetZero()
			return nil
		}
		p := reflect.New(ct.ElemType.GoType)
		if err := d.decode(store, ct.ElemType, w, p.Elem()); err != nil {
			return err
		}
		rv.Set(p)
		return nil

	case KindVec:
		elems, err := vecOf(store, ct, w)
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(ct.GoType, len(elems), len(elems))
		for i, e := range elems {
			if err := d.decode(store, ct.ElemType, e, s.Index(i)); err != nil {
				return errors.WithPath(err, indexName(i))
			}
		}
		rv.Set(s)
		return nil

	case KindArray:
		elems, err := vecOf(store, ct, w)
		if err != nil {
			return err
		}
		if len(elems) != ct.Len {
			return mismatch(ct, w, "want %d elements, got %d", ct.Len, len(elems))
		}
		for i, e := range elems {
			if err := d.decode(store, ct.ElemType, e, rv.Index(i)); err != nil {
				return errors.WithPath(err, indexName(i))
			}
		}
		return nil

	case KindMap:
		return d.decodeMap(store, ct, w, rv)

	case KindStruct:
		if ct.Layout == LayoutMap {
			return d.decodeFieldMap(store, ct, w, rv)
		}
		return d.decodeFields(store, ct, w, rv)

	case KindTuple:
		return d.decodeFields(store, ct, w, rv)

	case KindEnum:
		n, ok := w.U32()
		if !ok {
			return mismatch(ct, w, "")
		}
		return setEnum(ct, rv, n)

	case KindErrorEnum:
		e, ok := w.AsError()
		if !ok || !e.IsContract() {
			return mismatch(ct, w, "")
		}
		return setEnum(ct, rv, e.Code)

	case KindUnion:
		return d.decodeUnion(store, ct, w, rv)
	}

	return errors.UnsupportedShape(errors.PhaseDecode, nil, ct.GoType.String(), "kind "+ct.Kind.String())
}

func (d *Decoder) decodeTime(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value, small, object val.Tag) error {
	switch w.Tag() {
	case small:
		rv.SetUint(w.SmallUnsignedBody())
		return nil
	case object:
		v, err := val.Lift(store, w)
		if err != nil {
			return err
		}
		rv.SetUint(reflect.ValueOf(v).Uint())
		return nil
	}
	return mismatch(ct, w, "")
}

func (d *Decoder) decodeFields(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value) error {
	elems, err := vecOf(store, ct, w)
	if err != nil {
		return err
	}
	if len(elems) != len(ct.Fields) {
		return mismatch(ct, w, "want %d fields, got %d", len(ct.Fields), len(elems))
	}
	for i, f := range ct.Fields {
		if err := d.decode(store, f.Type, elems[i], rv.Field(f.Index)); err != nil {
			return errors.WithPath(err, f.Name)
		}
	}
	return nil
}

func (d *Decoder) decodeFieldMap(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value) error {
	if w.Tag() != val.TagMapObject {
		return mismatch(ct, w, "")
	}
	entries, err := val.Resolve[val.MapObject](store, w)
	if err != nil {
		return err
	}
	if len(entries) != len(ct.Fields) {
		return mismatch(ct, w, "want %d fields, got %d", len(ct.Fields), len(entries))
	}
	byName := make(map[string]val.Val, len(entries))
	for _, e := range entries {
		name, err := symbolOf(store, e.Key)
		if err != nil {
			return mismatch(ct, e.Key, "field keys must be symbols")
		}
		byName[name] = e.Value
	}
	for _, f := range ct.Fields {
		fw, ok := byName[f.Name]
		if !ok {
			return errors.New(errors.PhaseDecode, errors.KindNotFound).
				Path(f.Name).GoType(ct.GoType.String()).
				Detail("missing field %q", f.Name).Build()
		}
		if err := d.decode(store, f.Type, fw, rv.Field(f.Index)); err != nil {
			return errors.WithPath(err, f.Name)
		}
	}
	return nil
}

func (d *Decoder) decodeMap(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value) error {
	if w.Tag() != val.TagMapObject {
		return mismatch(ct, w, "")
	}
	entries, err := val.Resolve[val.MapObject](store, w)
	if err != nil {
		return err
	}
	m := reflect.MakeMapWithSize(ct.GoType, len(entries))
	for _, e := range entries {
		k := reflect.New(ct.KeyType.GoType).Elem()
		if err := d.decode(store, ct.KeyType, e.Key, k); err != nil {
			return errors.WithPath(err, "[key]")
		}
		v := reflect.New(ct.ValueType.GoType).Elem()
		if err := d.decode(store, ct.ValueType, e.Value, v); err != nil {
			return errors.WithPath(err, "[value]")
		}
		m.SetMapIndex(k, v)
	}
	rv.Set(m)
	return nil
}

func (d *Decoder) decodeUnion(store val.ObjectStore, ct *CompiledType, w val.Val, rv reflect.Value) error {
	elems, err := vecOf(store, ct, w)
	if err != nil {
		return err
	}
	if len(elems) == 0 {
		return mismatch(ct, w, "union vector is empty")
	}
	name, err := symbolOf(store, elems[0])
	if err != nil {
		return mismatch(ct, elems[0], "union case must be a symbol")
	}
	c, ok := ct.Case(name)
	if !ok {
		return errors.New(errors.PhaseDecode, errors.KindNotFound).
			GoType(ct.GoType.String()).Detail("no union case %q", name).Build()
	}
	payload := elems[1:]
	if len(payload) != len(c.Types) {
		return mismatch(ct, w, "case %s wants %d values, got %d", name, len(c.Types), len(payload))
	}

	rv.SetZero()
	field := rv.Field(c.Index)
	p := reflect.New(field.Type().Elem())
	switch {
	case len(c.Types) == 0:
	case c.Payload.Kind == KindTuple:
		for i, f := range c.Payload.Fields {
			if err := d.decode(store, f.Type, payload[i], p.Elem().Field(f.Index)); err != nil {
				return errors.WithPath(err, name, f.Name)
			}
		}
	default:
		if err := d.decode(store, c.Payload, payload[0], p.Elem()); err != nil {
			return errors.WithPath(err, name)
		}
	}
	field.Set(p)
	return nil
}

func vecOf(store val.ObjectStore, ct *CompiledType, w val.Val) (val.VecObject, error) {
	if w.Tag() != val.TagVecObject {
		return nil, mismatch(ct, w, "")
	}
	return val.Resolve[val.VecObject](store, w)
}

// symbolOf reads a symbol in any of its encodings: inline, Symbol object
// or String object.
func symbolOf(store val.ObjectStore, w val.Val) (string, error) {
	if s, ok := w.SmallSymbolString(); ok {
		return s, nil
	}
	if w.Tag() == val.TagStringObject {
		s, err := val.Resolve[val.String](store, w)
		return string(s), err
	}
	s, err := val.Resolve[val.Symbol](store, w)
	return string(s), err
}

// integerOf accepts any integer variant; the caller range-checks the result.
func integerOf(store val.ObjectStore, ct *CompiledType, w val.Val) (*big.Int, error) {
	switch w.Tag() {
	case val.TagU32:
		n, _ := w.U32()
		return new(big.Int).SetUint64(uint64(n)), nil
	case val.TagI32:
		n, _ := w.I32()
		return big.NewInt(int64(n)), nil
	case val.TagU64Small, val.TagU128Small, val.TagU256Small:
		return new(big.Int).SetUint64(w.SmallUnsignedBody()), nil
	case val.TagI64Small, val.TagI128Small, val.TagI256Small:
		return big.NewInt(w.SmallSignedBody()), nil
	case val.TagU64Object, val.TagI64Object, val.TagU128Object, val.TagI128Object,
		val.TagU256Object, val.TagI256Object:
		v, err := val.Lift(store, w)
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case val.U64:
			return new(big.Int).SetUint64(uint64(x)), nil
		case val.I64:
			return big.NewInt(int64(x)), nil
		case val.U128:
			return x.Big(), nil
		case val.I128:
			return x.Big(), nil
		case val.U256:
			return x.Big(), nil
		case val.I256:
			return x.Big(), nil
		}
	}
	return nil, mismatch(ct, w, "")
}

func setInteger(rv reflect.Value, n *big.Int, target string) error {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n.Sign() < 0 || !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
			return errors.Range(errors.PhaseDecode, nil, n.String(), target)
		}
		rv.SetUint(n.Uint64())
	default:
		if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
			return errors.Range(errors.PhaseDecode, nil, n.String(), target)
		}
		rv.SetInt(n.Int64())
	}
	return nil
}

func setEnum(ct *CompiledType, rv reflect.Value, n uint32) error {
	if _, ok := ct.EnumValue(n); !ok {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			GoType(ct.GoType.String()).Value(n).
			Detail("%d is not a declared %s value", n, ct.Name).Build()
	}
	return setInteger(rv, new(big.Int).SetUint64(uint64(n)), ct.Kind.String())
}

func mismatch(ct *CompiledType, w val.Val, detail string, args ...any) *errors.Error {
	b := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		GoType(ct.GoType.String()).
		Shape(w.Tag().String())
	if detail != "" {
		b.Detail(detail, args...)
	}
	return b.Build()
}
