package val

import (
	stderrors "errors"
	"math/big"
	"strings"
	"testing"

	"github.com/wippyai/contract-sdk/errors"
)

type memStore struct {
	objects []Object
	limit   int
}

func (s *memStore) NewObject(obj Object) (Val, error) {
	if s.limit > 0 && len(s.objects) >= s.limit {
		return 0, stderrors.New("store full")
	}
	s.objects = append(s.objects, obj)
	return FromHandle(obj.ObjectTag(), uint32(len(s.objects))), nil
}

func (s *memStore) Object(v Val) (Object, error) {
	h := int(v.Handle())
	if h == 0 || h > len(s.objects) {
		return nil, errors.NotFound(errors.PhaseDecode, "handle", v.String())
	}
	return s.objects[h-1], nil
}

func TestValLayout(t *testing.T) {
	v := FromU32(42)
	if v.Tag() != TagU32 {
		t.Fatalf("Tag = %s", v.Tag())
	}
	if uint64(v) != 42<<32|uint64(TagU32) {
		t.Errorf("raw = 0x%x", uint64(v))
	}
	n, ok := v.U32()
	if !ok || n != 42 {
		t.Errorf("U32() = %d, %v", n, ok)
	}

	e := FromError(Error{Type: ErrorTypeStorage, Code: 7})
	if e.Major() != 7 || e.Minor() != uint32(ErrorTypeStorage) {
		t.Errorf("error layout major=%d minor=%d", e.Major(), e.Minor())
	}

	h := FromHandle(TagVecObject, 9)
	if !h.IsObject() || h.Handle() != 9 {
		t.Errorf("handle = %d", h.Handle())
	}
}

func TestSmallInts(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		ok   bool
	}{
		{"zero", 0, true},
		{"minus one", -1, true},
		{"max", smallIntMax, true},
		{"min", smallIntMin, true},
		{"over", smallIntMax + 1, false},
		{"under", smallIntMin - 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := SmallSigned(TagI64Small, tt.n)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && v.SmallSignedBody() != tt.n {
				t.Errorf("round trip = %d", v.SmallSignedBody())
			}
		})
	}

	if _, ok := SmallUnsigned(TagU64Small, bodyMax); !ok {
		t.Error("bodyMax should fit")
	}
	if _, ok := SmallUnsigned(TagU64Small, bodyMax+1); ok {
		t.Error("bodyMax+1 should not fit")
	}
}

func TestSymbolBoundary(t *testing.T) {
	store := &memStore{}

	nine := "abcdefghi"
	v, err := LowerSymbol(store, nine)
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag() != TagSymbolSmall {
		t.Errorf("9 chars: tag %s, want SymbolSmall", v.Tag())
	}
	if s, _ := v.SmallSymbolString(); s != nine {
		t.Errorf("decoded %q", s)
	}

	v, err = LowerSymbol(store, nine+"j")
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag() != TagStringObject {
		t.Errorf("10 chars: tag %s, want StringObject", v.Tag())
	}

	v, err = LowerSymbol(store, "bad-char")
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag() != TagStringObject {
		t.Errorf("bad char: tag %s, want StringObject", v.Tag())
	}
	got, err := Lift(store, v)
	if err != nil {
		t.Fatal(err)
	}
	if got != String("bad-char") {
		t.Errorf("lifted %v", got)
	}

	v, err = LowerSymbol(store, strings.Repeat("a", SymbolMaxLen+1))
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag() != TagStringObject {
		t.Errorf("over max: tag %s, want StringObject", v.Tag())
	}
}

func TestSmallSymbolRejectsGarbage(t *testing.T) {
	// A zero code in the middle of the body is not a valid symbol.
	body := uint64(symbolCode('a'))<<12 | uint64(symbolCode('b'))
	if _, ok := decodeSmallSymbol(body); ok {
		t.Error("zero code must be rejected")
	}
	if fromBody(TagSymbolSmall, body).Valid() {
		t.Error("Valid should reject")
	}
}

func TestLowerLiftRoundTrip(t *testing.T) {
	minI128Big, _ := new(big.Int).SetString("-170141183460469231731687303715884105728", 10)
	i128min, ok := I128FromBig(minI128Big)
	if !ok {
		t.Fatal("i128 min should convert")
	}
	addr := Address{Type: AddressContract}
	addr.ID[0] = 0xAB

	tests := []struct {
		name   string
		value  Value
		inline bool
	}{
		{"void", Unit{}, true},
		{"true", Bool(true), true},
		{"u32", U32(42), true},
		{"i32", I32(-7), true},
		{"u64 small", U64(100), true},
		{"u64 large", U64(1 << 60), false},
		{"i64 small", I64(-100), true},
		{"i64 large", I64(-1 << 60), false},
		{"timepoint", Timepoint(1700000000), true},
		{"duration", Duration(1 << 62), false},
		{"u128 small", U128FromU64(5), true},
		{"u128 large", U128{Hi: 1}, false},
		{"i128 negative small", I128FromI64(-5), true},
		{"i128 min", i128min, false},
		{"u256", U256{HiHi: 9}, false},
		{"i256 small", I256FromI64(-9), true},
		{"symbol", Symbol("hello"), true},
		{"string", String("hello"), false},
		{"bytes", Bytes{1, 2, 3}, false},
		{"address", addr, false},
		{"error", ContractError(3), true},
		{"vec", Vec{U32(1), String("x"), Vec{}}, false},
		{"map", Map{{Key: Symbol("a"), Value: U64(1)}, {Key: Symbol("b"), Value: Bool(false)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			w, err := Lower(store, tt.value)
			if err != nil {
				t.Fatalf("Lower: %v", err)
			}
			if w.IsObject() == tt.inline {
				t.Errorf("IsObject = %v, inline = %v", w.IsObject(), tt.inline)
			}
			if tt.inline && len(store.objects) != 0 {
				t.Errorf("inline value allocated %d objects", len(store.objects))
			}
			got, err := Lift(store, w)
			if err != nil {
				t.Fatalf("Lift: %v", err)
			}
			if !Equal(got, tt.value) {
				t.Errorf("round trip: got %s, want %s", Format(got), Format(tt.value))
			}
		})
	}
}

func TestLowerAllocationFailure(t *testing.T) {
	store := &memStore{limit: 1}
	_, err := Lower(store, Vec{String("a"), String("b")})
	if !stderrors.Is(err, errors.ErrHostAllocation) {
		t.Fatalf("err = %v, want host allocation failure", err)
	}

	_, err = Lower(nil, U32(1))
	if err != nil {
		t.Errorf("inline lowering needs no store: %v", err)
	}
}

func TestLowerDuplicateMapKey(t *testing.T) {
	_, err := Lower(&memStore{}, Map{{Key: U32(1), Value: Unit{}}, {Key: U32(1), Value: Unit{}}})
	if err == nil {
		t.Fatal("duplicate keys should fail")
	}
}

func TestLiftMismatchedHandle(t *testing.T) {
	store := &memStore{}
	w, _ := Lower(store, String("x"))
	forged := FromHandle(TagBytesObject, w.Handle())
	if _, err := Lift(store, forged); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("err = %v, want type mismatch", err)
	}
	if _, err := Lift(store, Val(0x55)); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("unknown tag err = %v", err)
	}
}

func TestEqualMapOrder(t *testing.T) {
	a := Map{{Key: U32(1), Value: Bool(true)}, {Key: U32(2), Value: Bool(false)}}
	b := Map{{Key: U32(2), Value: Bool(false)}, {Key: U32(1), Value: Bool(true)}}
	if !Equal(a, b) {
		t.Error("maps should be equal regardless of order")
	}
	if Compare(a, b) != 0 {
		t.Error("Compare should agree with Equal")
	}
	if Equal(U32(1), U64(1)) {
		t.Error("different kinds are not equal")
	}
}

func TestCompareOrder(t *testing.T) {
	ordered := []Value{
		Unit{},
		Bool(false),
		Bool(true),
		U32(1),
		U32(2),
		I64(-5),
		I64(3),
		I128FromI64(-1),
		I128{Hi: 1},
		String("a"),
		String("b"),
		Vec{U32(1)},
		Vec{U32(1), U32(0)},
	}
	for i := 1; i < len(ordered); i++ {
		if Compare(ordered[i-1], ordered[i]) >= 0 {
			t.Errorf("Compare(%s, %s) should be negative", Format(ordered[i-1]), Format(ordered[i]))
		}
	}
}

func TestBigConversions(t *testing.T) {
	tests := []string{
		"0",
		"1",
		"-1",
		"340282366920938463463374607431768211455",
		"-57896044618658097711785492504343953926634992332820282019728792003956564819968",
	}
	for _, s := range tests {
		b, _ := new(big.Int).SetString(s, 10)
		if b.Sign() >= 0 {
			if u, ok := U256FromBig(b); !ok || u.Big().Cmp(b) != 0 {
				t.Errorf("U256 %s -> %v", s, u)
			}
		}
		if i, ok := I256FromBig(b); !ok || i.Big().Cmp(b) != 0 {
			t.Errorf("I256 %s -> %v", s, i)
		}
	}

	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	if _, ok := U128FromBig(tooBig); ok {
		t.Error("2^128 must not fit U128")
	}
	if _, ok := I128FromBig(new(big.Int).Neg(tooBig)); ok {
		t.Error("-2^128 must not fit I128")
	}
}

func TestAddressStrkey(t *testing.T) {
	var a Address
	a.Type = AddressContract
	for i := range a.ID {
		a.ID[i] = byte(i)
	}
	s := a.String()
	if s[0] != 'C' {
		t.Errorf("contract address should start with C, got %s", s)
	}
	back, err := ParseAddress(s)
	if err != nil {
		t.Fatal(err)
	}
	if back != a {
		t.Errorf("round trip mismatch")
	}

	acct := Address{Type: AddressAccount}
	if acct.String()[0] != 'G' {
		t.Errorf("account address should start with G, got %s", acct.String())
	}

	corrupted := []byte(s)
	if corrupted[10] == 'A' {
		corrupted[10] = 'B'
	} else {
		corrupted[10] = 'A'
	}
	if _, err := ParseAddress(string(corrupted)); err == nil {
		t.Error("corrupted address should fail checksum")
	}
}

func TestCRC16(t *testing.T) {
	// CRC-16/XMODEM check value.
	if got := crc16([]byte("123456789")); got != 0x31C3 {
		t.Errorf("crc16 = 0x%04X, want 0x31C3", got)
	}
}

func TestErrorFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Error
	}{
		{"val error", ContractError(4), ContractError(4)},
		{"range", errors.Range(errors.PhaseDecode, nil, 300, "u8"), HostError(ErrorTypeValue, CodeArithDomain)},
		{"mismatch", errors.TypeMismatch(errors.PhaseDecode, nil, "u32", "string"), HostError(ErrorTypeValue, CodeUnexpectedType)},
		{"arity", errors.Arity("f", 2, 3), HostError(ErrorTypeContext, CodeUnexpectedSize)},
		{"plain", stderrors.New("boom"), HostError(ErrorTypeContext, CodeInternalError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorFromErr(tt.err); got != tt.want {
				t.Errorf("ErrorFromErr = %v, want %v", got, tt.want)
			}
		})
	}
}
