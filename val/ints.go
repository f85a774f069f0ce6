package val

import (
	"math/big"
)

// U128 is an unsigned 128-bit integer.
type U128 struct {
	Hi uint64
	Lo uint64
}

// I128 is a signed 128-bit integer in two's complement.
type I128 struct {
	Hi int64
	Lo uint64
}

// U256 is an unsigned 256-bit integer, most significant word first.
type U256 struct {
	HiHi uint64
	HiLo uint64
	LoHi uint64
	LoLo uint64
}

// I256 is a signed 256-bit integer in two's complement, most significant word first.
type I256 struct {
	HiHi int64
	HiLo uint64
	LoHi uint64
	LoLo uint64
}

var (
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	two256  = new(big.Int).Lsh(big.NewInt(1), 256)
	maxU128 = new(big.Int).Sub(two128, big.NewInt(1))
	maxU256 = new(big.Int).Sub(two256, big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Rsh(two128, 1), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Rsh(two128, 1))
	maxI256 = new(big.Int).Sub(new(big.Int).Rsh(two256, 1), big.NewInt(1))
	minI256 = new(big.Int).Neg(new(big.Int).Rsh(two256, 1))
)

func wordsToBig(words ...uint64) *big.Int {
	n := new(big.Int)
	for _, w := range words {
		n.Lsh(n, 64)
		n.Or(n, new(big.Int).SetUint64(w))
	}
	return n
}

// bigToWords splits a non-negative n (< 2^(64*count)) into count words, most
// significant first.
func bigToWords(n *big.Int, count int) []uint64 {
	words := make([]uint64, count)
	tmp := new(big.Int).Set(n)
	mask := new(big.Int).SetUint64(^uint64(0))
	for i := count - 1; i >= 0; i-- {
		words[i] = new(big.Int).And(tmp, mask).Uint64()
		tmp.Rsh(tmp, 64)
	}
	return words
}

// Big returns n as a big.Int.
func (n U128) Big() *big.Int {
	return wordsToBig(n.Hi, n.Lo)
}

// Big returns n as a big.Int.
func (n I128) Big() *big.Int {
	b := wordsToBig(uint64(n.Hi), n.Lo)
	if n.Hi < 0 {
		b.Sub(b, two128)
	}
	return b
}

// Big returns n as a big.Int.
func (n U256) Big() *big.Int {
	return wordsToBig(n.HiHi, n.HiLo, n.LoHi, n.LoLo)
}

// Big returns n as a big.Int.
func (n I256) Big() *big.Int {
	b := wordsToBig(uint64(n.HiHi), n.HiLo, n.LoHi, n.LoLo)
	if n.HiHi < 0 {
		b.Sub(b, two256)
	}
	return b
}

func (n U128) String() string { return n.Big().String() }
func (n I128) String() string { return n.Big().String() }
func (n U256) String() string { return n.Big().String() }
func (n I256) String() string { return n.Big().String() }

// U128FromBig converts b, reporting false if it is out of range.
func U128FromBig(b *big.Int) (U128, bool) {
	if b.Sign() < 0 || b.Cmp(maxU128) > 0 {
		return U128{}, false
	}
	w := bigToWords(b, 2)
	return U128{Hi: w[0], Lo: w[1]}, true
}

// I128FromBig converts b, reporting false if it is out of range.
func I128FromBig(b *big.Int) (I128, bool) {
	if b.Cmp(minI128) < 0 || b.Cmp(maxI128) > 0 {
		return I128{}, false
	}
	t := new(big.Int).Set(b)
	if t.Sign() < 0 {
		t.Add(t, two128)
	}
	w := bigToWords(t, 2)
	return I128{Hi: int64(w[0]), Lo: w[1]}, true
}

// U256FromBig converts b, reporting false if it is out of range.
func U256FromBig(b *big.Int) (U256, bool) {
	if b.Sign() < 0 || b.Cmp(maxU256) > 0 {
		return U256{}, false
	}
	w := bigToWords(b, 4)
	return U256{HiHi: w[0], HiLo: w[1], LoHi: w[2], LoLo: w[3]}, true
}

// I256FromBig converts b, reporting false if it is out of range.
func I256FromBig(b *big.Int) (I256, bool) {
	if b.Cmp(minI256) < 0 || b.Cmp(maxI256) > 0 {
		return I256{}, false
	}
	t := new(big.Int).Set(b)
	if t.Sign() < 0 {
		t.Add(t, two256)
	}
	w := bigToWords(t, 4)
	return I256{HiHi: int64(w[0]), HiLo: w[1], LoHi: w[2], LoLo: w[3]}, true
}

// U128FromU64 widens n.
func U128FromU64(n uint64) U128 { return U128{Lo: n} }

// I128FromI64 widens n with sign extension.
func I128FromI64(n int64) I128 {
	hi := int64(0)
	if n < 0 {
		hi = -1
	}
	return I128{Hi: hi, Lo: uint64(n)}
}

// U256FromU64 widens n.
func U256FromU64(n uint64) U256 { return U256{LoLo: n} }

// I256FromI64 widens n with sign extension.
func I256FromI64(n int64) I256 {
	ext := uint64(0)
	hi := int64(0)
	if n < 0 {
		ext = ^uint64(0)
		hi = -1
	}
	return I256{HiHi: hi, HiLo: ext, LoHi: ext, LoLo: uint64(n)}
}

// small returns the value when it fits the unsigned 56-bit inline range.
func (n U128) small() (uint64, bool) {
	if n.Hi != 0 || n.Lo > bodyMax {
		return 0, false
	}
	return n.Lo, true
}

func (n I128) small() (int64, bool) {
	// Sign-extended 64-bit view must round-trip.
	lo := int64(n.Lo)
	if (lo < 0 && n.Hi != -1) || (lo >= 0 && n.Hi != 0) {
		return 0, false
	}
	if lo > smallIntMax || lo < smallIntMin {
		return 0, false
	}
	return lo, true
}

func (n U256) small() (uint64, bool) {
	if n.HiHi != 0 || n.HiLo != 0 || n.LoHi != 0 || n.LoLo > bodyMax {
		return 0, false
	}
	return n.LoLo, true
}

func (n I256) small() (int64, bool) {
	lo := int64(n.LoLo)
	if lo < 0 {
		if n.HiHi != -1 || n.HiLo != ^uint64(0) || n.LoHi != ^uint64(0) {
			return 0, false
		}
	} else if n.HiHi != 0 || n.HiLo != 0 || n.LoHi != 0 {
		return 0, false
	}
	if lo > smallIntMax || lo < smallIntMin {
		return 0, false
	}
	return lo, true
}
