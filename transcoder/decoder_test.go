package transcoder

import (
	stderrors "errors"
	"math/big"
	"strings"
	"testing"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/resource"
	"github.com/wippyai/contract-sdk/val"
)

func lower(t *testing.T, store val.ObjectStore, v val.Value) val.Val {
	t.Helper()
	w, err := val.Lower(store, v)
	if err != nil {
		t.Fatalf("Lower(%s): %v", val.Format(v), err)
	}
	return w
}

func TestDecode_PermissiveIntegers(t *testing.T) {
	store := resource.NewTable()

	var u8 uint8
	if err := Decode(store, lower(t, store, val.I128FromI64(200)), &u8); err != nil || u8 != 200 {
		t.Errorf("i128(200) into uint8 = %d, %v", u8, err)
	}

	var i64 int64
	if err := Decode(store, lower(t, store, val.U32(7)), &i64); err != nil || i64 != 7 {
		t.Errorf("u32(7) into int64 = %d, %v", i64, err)
	}

	var u128 val.U128
	if err := Decode(store, lower(t, store, val.U64(1<<60)), &u128); err != nil || u128.Lo != 1<<60 {
		t.Errorf("u64 into U128 = %v, %v", u128, err)
	}

	var b *big.Int
	if err := Decode(store, lower(t, store, val.I256FromI64(-9)), &b); err != nil || b.Int64() != -9 {
		t.Errorf("i256 into big.Int = %v, %v", b, err)
	}
}

func TestDecode_Range(t *testing.T) {
	store := resource.NewTable()
	tests := []struct {
		name   string
		in     val.Value
		target any
	}{
		{"u8 overflow", val.U32(256), new(uint8)},
		{"negative into unsigned", val.I32(-1), new(uint32)},
		{"i32 overflow", val.U64(1 << 40), new(int32)},
		{"u128 into u64", val.U128{Hi: 1}, new(uint64)},
		{"negative into u128", val.I64(-1), new(val.U128)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(store, lower(t, store, tt.in), tt.target)
			if !stderrors.Is(err, errors.ErrRange) {
				t.Errorf("err = %v, want range error", err)
			}
		})
	}
}

func TestDecode_TypeMismatch(t *testing.T) {
	store := resource.NewTable()
	tests := []struct {
		name   string
		in     val.Value
		target any
	}{
		{"bool from u32", val.U32(1), new(bool)},
		{"u32 from string", val.String("1"), new(uint32)},
		{"string from bytes", val.Bytes("x"), new(string)},
		{"struct arity", val.Vec{val.I32(1)}, new(Point)},
		{"struct from map", val.Map{}, new(Point)},
		{"bytesN length", val.Bytes{1, 2}, new([4]byte)},
		{"array length", val.Vec{val.U32(1)}, new([2]uint32)},
		{"void from u32", val.U32(0), new(struct{})},
		{"enum from error", val.ContractError(1), new(Color)},
		{"error enum from host error", val.HostError(val.ErrorTypeStorage, val.CodeMissingValue), new(TokenError)},
		{"symbol from invalid string", val.String("not a symbol"), new(val.Symbol)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(store, lower(t, store, tt.in), tt.target)
			if !stderrors.Is(err, errors.ErrTypeMismatch) {
				t.Errorf("err = %v, want type mismatch", err)
			}
		})
	}
}

func TestDecode_StringsAndSymbols(t *testing.T) {
	store := resource.NewTable()

	var s string
	if err := Decode(store, val.MustSymbol("hello"), &s); err != nil || s != "hello" {
		t.Errorf("symbol into string = %q, %v", s, err)
	}

	var sym val.Symbol
	if err := Decode(store, lower(t, store, val.String("from_string")), &sym); err != nil || sym != "from_string" {
		t.Errorf("string into symbol = %q, %v", sym, err)
	}
	if err := Decode(store, lower(t, store, val.Symbol("long_symbol_name")), &sym); err != nil || sym != "long_symbol_name" {
		t.Errorf("symbol object = %q, %v", sym, err)
	}
}

func TestDecode_SymbolRoundTrip(t *testing.T) {
	store := resource.NewTable()
	for _, in := range []val.Symbol{"short", "abcdefghij", "bad-char", "with space", val.Symbol(strings.Repeat("z", 40))} {
		w, err := Encode(store, in)
		if err != nil {
			t.Fatalf("Encode(%q): %v", in, err)
		}
		var out val.Symbol
		if err := Decode(store, w, &out); err != nil {
			t.Errorf("Decode(%q) from %s: %v", in, w.Tag(), err)
			continue
		}
		if out != in {
			t.Errorf("round trip %q -> %q", in, out)
		}
	}

	obj, err := val.Alloc(store, val.Symbol("stored_symbol"))
	if err != nil {
		t.Fatal(err)
	}
	var sym val.Symbol
	if err := Decode(store, obj, &sym); err != nil || sym != "stored_symbol" {
		t.Errorf("symbol object = %q, %v", sym, err)
	}
}

func TestDecode_Enums(t *testing.T) {
	var c Color
	if err := Decode(nil, val.FromU32(2), &c); err != nil || c != Green {
		t.Errorf("Color = %v, %v", c, err)
	}
	if err := Decode(nil, val.FromU32(3), &c); !stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidInput}) {
		t.Errorf("undeclared Color: %v", err)
	}

	var te TokenError
	if err := Decode(nil, val.ContractError(7).Val(), &te); err != nil || te != ErrFrozen {
		t.Errorf("TokenError = %v, %v", te, err)
	}
}

func TestDecode_Union(t *testing.T) {
	store := resource.NewTable()
	tests := []struct {
		name string
		in   val.Value
	}{
		{"empty", val.Vec{}},
		{"unknown case", val.Vec{val.Symbol("Jump")}},
		{"missing payload", val.Vec{val.Symbol("Move")}},
		{"extra payload", val.Vec{val.Symbol("Stop"), val.U32(1)}},
		{"case not a symbol", val.Vec{val.U32(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Action
			if err := Decode(store, lower(t, store, tt.in), &a); err == nil {
				t.Errorf("decoded %+v, want error", a)
			}
		})
	}

	// Decoding resets previously set cases.
	a := Action{Stop: &struct{}{}}
	w := lower(t, store, val.Vec{val.Symbol("Transfer"), val.U32(1), val.String("x")})
	if err := Decode(store, w, &a); err != nil {
		t.Fatal(err)
	}
	if a.Stop != nil || a.Transfer == nil || a.Transfer.B != "x" {
		t.Errorf("decoded %+v", a)
	}
}

func TestDecode_MapLayoutMissingField(t *testing.T) {
	store := resource.NewTable()
	w := lower(t, store, val.Map{
		{Key: val.Symbol("balance"), Value: val.I32(1)},
		{Key: val.Symbol("memo"), Value: val.Unit{}},
		{Key: val.Symbol("owner"), Value: val.Address{}},
		{Key: val.Symbol("other"), Value: val.Map{}},
	})
	var a Account
	err := Decode(store, w, &a)
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want missing field", err)
	}
}

func TestDecode_ErrorPath(t *testing.T) {
	store := resource.NewTable()
	w := lower(t, store, val.Vec{val.U32(1), val.Vec{val.Vec{val.U32(2), val.String("bad")}}})
	var n Node
	err := Decode(store, w, &n)
	var se *errors.Error
	if !stderrors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	want := []string{"children", "[0]", "children"}
	if len(se.Path) != len(want) {
		t.Fatalf("path = %v, want %v", se.Path, want)
	}
	for i := range want {
		if se.Path[i] != want[i] {
			t.Errorf("path = %v, want %v", se.Path, want)
		}
	}
}

func TestDecode_Target(t *testing.T) {
	if err := Decode(nil, val.Void, nil); !stderrors.Is(err, &errors.Error{Kind: errors.KindNilPointer}) {
		t.Errorf("nil target: %v", err)
	}
	var n uint32
	if err := Decode(nil, val.FromU32(1), n); err == nil {
		t.Error("non-pointer target should fail")
	}
}

func TestDecode_Value(t *testing.T) {
	store := resource.NewTable()
	in := val.Map{{Key: val.Symbol("k"), Value: val.Vec{val.Bool(true)}}}
	var out val.Value
	if err := Decode(store, lower(t, store, in), &out); err != nil {
		t.Fatal(err)
	}
	if !val.Equal(in, out) {
		t.Errorf("got %s", val.Format(out))
	}

	got, err := DecodeAs[val.Val](store, val.FromU32(4))
	if err != nil || got != val.FromU32(4) {
		t.Errorf("DecodeAs[Val] = %v, %v", got, err)
	}
}
