// Package transcoder converts Go values to and from contract Vals.
//
// A Compiler inspects a Go type once and caches a CompiledType describing
// how values of that type are laid out:
//
//	Go type                    Shape        Val
//	──────────────────────────────────────────────────────────
//	bool                       bool         True / False
//	uint8..uint32              u32          U32
//	int8..int32                i32          I32
//	uint64, uint               u64          U64Small / U64Object
//	int64, int                 i64          I64Small / I64Object
//	val.U128 .. val.I256       u128 .. i256 small or object
//	*big.Int                   i256         narrowest of I128 / I256
//	string                     string       StringObject
//	val.Symbol                 symbol       SymbolSmall / SymbolObject
//	[]byte                     bytes        BytesObject
//	[N]byte                    bytesN<N>    BytesObject
//	*T                         option<T>    Void or T
//	[]T                        vec<T>       VecObject
//	[N]T                       array<T,N>   VecObject
//	map[K]V                    map<K,V>     MapObject, keys sorted
//	struct                     UDT          VecObject of fields
//	struct (LayoutMap)         UDT          MapObject keyed by field name
//	struct{}                   void         Void
//	val.Val                    val          passed through
//	val.Value                  val          Lower / Lift
//
// Structs choose their encoding through marker methods: StructLayout,
// Tuple and Union, and integer types become enums through Enum or
// ErrorEnum. Field names come from the `contract` tag or the Go name in
// snake_case; `contract:"-"` skips a field. A `doc` tag documents it.
//
// Decoding accepts any integer variant for an integer target and fails
// with a range error when the value does not fit. Strings decode from
// symbols as well.
//
// # Usage
//
//	w, err := transcoder.Encode(env, Point{X: 3, Y: -3})
//	var p Point
//	err = transcoder.Decode(env, w, &p)
package transcoder
