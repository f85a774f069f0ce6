package transcoder

import (
	"github.com/wippyai/contract-sdk/transcoder/internal/types"
)

type TypeKind = types.Kind

const (
	KindVoid      = types.KindVoid
	KindBool      = types.KindBool
	KindU32       = types.KindU32
	KindI32       = types.KindI32
	KindU64       = types.KindU64
	KindI64       = types.KindI64
	KindU128      = types.KindU128
	KindI128      = types.KindI128
	KindU256      = types.KindU256
	KindI256      = types.KindI256
	KindBigInt    = types.KindBigInt
	KindTimepoint = types.KindTimepoint
	KindDuration  = types.KindDuration
	KindString    = types.KindString
	KindSymbol    = types.KindSymbol
	KindBytes     = types.KindBytes
	KindBytesN    = types.KindBytesN
	KindAddress   = types.KindAddress
	KindError     = types.KindError
	KindVal       = types.KindVal
	KindValue     = types.KindValue
	KindOption    = types.KindOption
	KindVec       = types.KindVec
	KindArray     = types.KindArray
	KindMap       = types.KindMap
	KindStruct    = types.KindStruct
	KindTuple     = types.KindTuple
	KindEnum      = types.KindEnum
	KindErrorEnum = types.KindErrorEnum
	KindUnion     = types.KindUnion
)

type CompiledType = types.CompiledType
type CompiledField = types.Field
type CompiledCase = types.Case
type CompiledEnumCase = types.EnumCase
