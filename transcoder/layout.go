package transcoder

import (
	"reflect"

	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder/internal/types"
)

// Layout selects how a struct's fields are encoded. EntryOf records it in
// the StructSpec so clients built from the spec use the same container.
type Layout = types.Layout

const (
	LayoutVec = types.LayoutVec
	LayoutMap = types.LayoutMap
)

// StructLayout is implemented by structs that choose their container.
// Structs without it use LayoutVec.
type StructLayout interface {
	ContractLayout() Layout
}

// Enum is implemented by integer types encoded as a U32 with a fixed set of
// declared values.
type Enum interface {
	ContractEnum() []spec.EnumCase
}

// ErrorEnum is implemented by integer types encoded as contract Error
// values. Such types usually also implement error so contract functions
// can return them.
type ErrorEnum interface {
	ContractErrors() []spec.EnumCase
}

// Union marks a struct whose exported pointer fields are alternative
// cases; exactly one must be set. A case encodes as
// Vec[Symbol(case), payload...]. A *struct{} field is a case without
// payload and a pointer to a Tuple contributes one element per field.
type Union interface {
	ContractUnion()
}

// Tuple marks a struct encoded as a positional Vec without a named spec
// entry.
type Tuple interface {
	ContractTuple()
}

// Named overrides the public name of a struct, enum, error enum or union.
type Named interface {
	ContractName() string
}

// Documented attaches documentation to a named type's spec entry.
type Documented interface {
	ContractDoc() string
}

var (
	structLayoutType = reflect.TypeFor[StructLayout]()
	enumType         = reflect.TypeFor[Enum]()
	errorEnumType    = reflect.TypeFor[ErrorEnum]()
	unionType        = reflect.TypeFor[Union]()
	tupleType        = reflect.TypeFor[Tuple]()
	namedType        = reflect.TypeFor[Named]()
	documentedType   = reflect.TypeFor[Documented]()
)

// zeroAs returns the zero value of t as an I, for calling marker methods.
func zeroAs[I any](t reflect.Type) I {
	return reflect.Zero(t).Interface().(I)
}
