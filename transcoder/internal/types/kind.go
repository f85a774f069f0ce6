package types

type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindU32
	KindI32
	KindU64
	KindI64
	KindU128
	KindI128
	KindU256
	KindI256
	KindBigInt
	KindTimepoint
	KindDuration
	KindString
	KindSymbol
	KindBytes
	KindBytesN
	KindAddress
	KindError
	KindVal
	KindValue
	KindOption
	KindVec
	KindArray
	KindMap
	KindStruct
	KindTuple
	KindEnum
	KindErrorEnum
	KindUnion
)

var kindNames = [...]string{
	KindVoid:      "void",
	KindBool:      "bool",
	KindU32:       "u32",
	KindI32:       "i32",
	KindU64:       "u64",
	KindI64:       "i64",
	KindU128:      "u128",
	KindI128:      "i128",
	KindU256:      "u256",
	KindI256:      "i256",
	KindBigInt:    "bigint",
	KindTimepoint: "timepoint",
	KindDuration:  "duration",
	KindString:    "string",
	KindSymbol:    "symbol",
	KindBytes:     "bytes",
	KindBytesN:    "bytesn",
	KindAddress:   "address",
	KindError:     "error",
	KindVal:       "val",
	KindValue:     "value",
	KindOption:    "option",
	KindVec:       "vec",
	KindArray:     "array",
	KindMap:       "map",
	KindStruct:    "struct",
	KindTuple:     "tuple",
	KindEnum:      "enum",
	KindErrorEnum: "error_enum",
	KindUnion:     "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether the kind has no nested compiled types.
func (k Kind) IsPrimitive() bool {
	return k <= KindValue
}

// IsNamed reports whether values of this kind are user-defined types that
// get their own spec entry.
func (k Kind) IsNamed() bool {
	switch k {
	case KindStruct, KindEnum, KindErrorEnum, KindUnion:
		return true
	}
	return false
}

// IsInteger reports whether the kind holds an integer payload.
func (k Kind) IsInteger() bool {
	return k >= KindU32 && k <= KindBigInt
}
