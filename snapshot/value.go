package snapshot

import (
	"fmt"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/val"
)

const maxValueDepth = 128

// wireValue is the CBOR form of a val.Value. Only the fields used by the
// kind are set; the rest are omitted.
type wireValue struct {
	Kind  uint8       `cbor:"0,keyasint"`
	Bool  bool        `cbor:"1,keyasint,omitempty"`
	Uint  uint64      `cbor:"2,keyasint,omitempty"`
	Int   int64       `cbor:"3,keyasint,omitempty"`
	Words []uint64    `cbor:"4,keyasint,omitempty"`
	Bytes []byte      `cbor:"5,keyasint,omitempty"`
	Text  string      `cbor:"6,keyasint,omitempty"`
	Elems []wireValue `cbor:"7,keyasint,omitempty"`
	Keys  []wireValue `cbor:"8,keyasint,omitempty"`
}

func toWire(v val.Value) (wireValue, error) {
	if v == nil {
		return wireValue{}, errors.InvalidInput(errors.PhaseSnapshot, "nil value")
	}
	w := wireValue{Kind: uint8(v.Kind())}
	switch x := v.(type) {
	case val.Unit:
	case val.Bool:
		w.Bool = bool(x)
	case val.U32:
		w.Uint = uint64(x)
	case val.I32:
		w.Int = int64(x)
	case val.U64:
		w.Uint = uint64(x)
	case val.I64:
		w.Int = int64(x)
	case val.Timepoint:
		w.Uint = uint64(x)
	case val.Duration:
		w.Uint = uint64(x)
	case val.U128:
		w.Words = []uint64{x.Hi, x.Lo}
	case val.I128:
		w.Words = []uint64{uint64(x.Hi), x.Lo}
	case val.U256:
		w.Words = []uint64{x.HiHi, x.HiLo, x.LoHi, x.LoLo}
	case val.I256:
		w.Words = []uint64{uint64(x.HiHi), x.HiLo, x.LoHi, x.LoLo}
	case val.Bytes:
		w.Bytes = []byte(x)
	case val.String:
		w.Text = string(x)
	case val.Symbol:
		w.Text = string(x)
	case val.Address:
		w.Uint = uint64(x.Type)
		w.Bytes = x.ID[:]
	case val.Error:
		w.Words = []uint64{uint64(x.Type), uint64(x.Code)}
	case val.Vec:
		w.Elems = make([]wireValue, len(x))
		for i, e := range x {
			ew, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			w.Elems[i] = ew
		}
	case val.Map:
		w.Keys = make([]wireValue, len(x))
		w.Elems = make([]wireValue, len(x))
		for i, e := range x {
			kw, err := toWire(e.Key)
			if err != nil {
				return wireValue{}, err
			}
			vw, err := toWire(e.Value)
			if err != nil {
				return wireValue{}, err
			}
			w.Keys[i], w.Elems[i] = kw, vw
		}
	default:
		return wireValue{}, errors.InvalidInput(errors.PhaseSnapshot, fmt.Sprintf("unsupported value %T", v))
	}
	return w, nil
}

func fromWire(w wireValue, depth int) (val.Value, error) {
	if depth > maxValueDepth {
		return nil, errors.SnapshotCorrupt("value nesting too deep", nil)
	}
	words := func(n int) error {
		if len(w.Words) != n {
			return errors.SnapshotCorrupt(fmt.Sprintf("%s needs %d words, got %d", val.Kind(w.Kind), n, len(w.Words)), nil)
		}
		return nil
	}
	narrow := func(max uint64) error {
		if w.Uint > max {
			return errors.SnapshotCorrupt(fmt.Sprintf("%s value %d out of range", val.Kind(w.Kind), w.Uint), nil)
		}
		return nil
	}

	switch val.Kind(w.Kind) {
	case val.KindVoid:
		return val.Unit{}, nil
	case val.KindBool:
		return val.Bool(w.Bool), nil
	case val.KindU32:
		if err := narrow(1<<32 - 1); err != nil {
			return nil, err
		}
		return val.U32(w.Uint), nil
	case val.KindI32:
		if w.Int < -1<<31 || w.Int > 1<<31-1 {
			return nil, errors.SnapshotCorrupt(fmt.Sprintf("i32 value %d out of range", w.Int), nil)
		}
		return val.I32(w.Int), nil
	case val.KindU64:
		return val.U64(w.Uint), nil
	case val.KindI64:
		return val.I64(w.Int), nil
	case val.KindTimepoint:
		return val.Timepoint(w.Uint), nil
	case val.KindDuration:
		return val.Duration(w.Uint), nil
	case val.KindU128:
		if err := words(2); err != nil {
			return nil, err
		}
		return val.U128{Hi: w.Words[0], Lo: w.Words[1]}, nil
	case val.KindI128:
		if err := words(2); err != nil {
			return nil, err
		}
		return val.I128{Hi: int64(w.Words[0]), Lo: w.Words[1]}, nil
	case val.KindU256:
		if err := words(4); err != nil {
			return nil, err
		}
		return val.U256{HiHi: w.Words[0], HiLo: w.Words[1], LoHi: w.Words[2], LoLo: w.Words[3]}, nil
	case val.KindI256:
		if err := words(4); err != nil {
			return nil, err
		}
		return val.I256{HiHi: int64(w.Words[0]), HiLo: w.Words[1], LoHi: w.Words[2], LoLo: w.Words[3]}, nil
	case val.KindBytes:
		return val.Bytes(w.Bytes), nil
	case val.KindString:
		return val.String(w.Text), nil
	case val.KindSymbol:
		if !val.Symbol(w.Text).Valid() {
			return nil, errors.SnapshotCorrupt(fmt.Sprintf("invalid symbol %q", w.Text), nil)
		}
		return val.Symbol(w.Text), nil
	case val.KindAddress:
		if err := narrow(uint64(val.AddressContract)); err != nil {
			return nil, err
		}
		if len(w.Bytes) != 32 {
			return nil, errors.SnapshotCorrupt(fmt.Sprintf("address id has %d bytes", len(w.Bytes)), nil)
		}
		a := val.Address{Type: val.AddressKind(w.Uint)}
		copy(a.ID[:], w.Bytes)
		return a, nil
	case val.KindError:
		if err := words(2); err != nil {
			return nil, err
		}
		if w.Words[0] > 1<<32-1 || w.Words[1] > 1<<32-1 {
			return nil, errors.SnapshotCorrupt("error value out of range", nil)
		}
		return val.Error{Type: val.ErrorType(w.Words[0]), Code: uint32(w.Words[1])}, nil
	case val.KindVec:
		out := make(val.Vec, len(w.Elems))
		for i, e := range w.Elems {
			v, err := fromWire(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case val.KindMap:
		if len(w.Keys) != len(w.Elems) {
			return nil, errors.SnapshotCorrupt(fmt.Sprintf("map has %d keys and %d values", len(w.Keys), len(w.Elems)), nil)
		}
		out := make(val.Map, len(w.Keys))
		for i := range w.Keys {
			k, err := fromWire(w.Keys[i], depth+1)
			if err != nil {
				return nil, err
			}
			v, err := fromWire(w.Elems[i], depth+1)
			if err != nil {
				return nil, err
			}
			if _, dup := out[:i].Get(k); dup {
				return nil, errors.SnapshotCorrupt("duplicate map key "+val.Format(k), nil)
			}
			out[i] = val.MapEntry{Key: k, Value: v}
		}
		return out, nil
	}
	return nil, errors.SnapshotCorrupt(fmt.Sprintf("unknown value kind %d", w.Kind), nil)
}

// Canonical returns v with every map, at any depth, ordered by key.
// Equal values have identical canonical forms.
func Canonical(v val.Value) val.Value {
	switch x := v.(type) {
	case val.Vec:
		out := make(val.Vec, len(x))
		for i, e := range x {
			out[i] = Canonical(e)
		}
		return out
	case val.Map:
		out := make(val.Map, len(x))
		for i, e := range x {
			out[i] = val.MapEntry{Key: Canonical(e.Key), Value: Canonical(e.Value)}
		}
		return out.Sorted()
	}
	return v
}

// KeyOf returns a string identifying v up to val.Equal, usable as a Go
// map key.
func KeyOf(v val.Value) (string, error) {
	b, err := marshalValue(Canonical(v))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
