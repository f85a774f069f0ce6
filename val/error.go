package val

import (
	stderrors "errors"
	"strconv"

	"github.com/wippyai/contract-sdk/errors"
)

// ErrorType is the category carried in the minor bits of an Error Val.
type ErrorType uint32

const (
	ErrorTypeContract ErrorType = 0
	ErrorTypeWasmVm   ErrorType = 1
	ErrorTypeContext  ErrorType = 2
	ErrorTypeStorage  ErrorType = 3
	ErrorTypeObject   ErrorType = 4
	ErrorTypeCrypto   ErrorType = 5
	ErrorTypeEvents   ErrorType = 6
	ErrorTypeBudget   ErrorType = 7
	ErrorTypeValue    ErrorType = 8
	ErrorTypeAuth     ErrorType = 9
)

var errorTypeNames = [...]string{
	"Contract", "WasmVm", "Context", "Storage", "Object",
	"Crypto", "Events", "Budget", "Value", "Auth",
}

func (t ErrorType) String() string {
	if int(t) < len(errorTypeNames) {
		return errorTypeNames[t]
	}
	return "ErrorType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// ErrorCode is the code of a non-contract error.
type ErrorCode uint32

const (
	CodeArithDomain    ErrorCode = 0
	CodeIndexBounds    ErrorCode = 1
	CodeInvalidInput   ErrorCode = 2
	CodeMissingValue   ErrorCode = 3
	CodeExistingValue  ErrorCode = 4
	CodeExceededLimit  ErrorCode = 5
	CodeInvalidAction  ErrorCode = 6
	CodeInternalError  ErrorCode = 7
	CodeUnexpectedType ErrorCode = 8
	CodeUnexpectedSize ErrorCode = 9
)

var errorCodeNames = [...]string{
	"ArithDomain", "IndexBounds", "InvalidInput", "MissingValue", "ExistingValue",
	"ExceededLimit", "InvalidAction", "InternalError", "UnexpectedType", "UnexpectedSize",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return "ErrorCode(" + strconv.FormatUint(uint64(c), 10) + ")"
}

// Error is a structured failure value: a type tag and a numeric code.
// Contract errors use author-defined codes.
type Error struct {
	Type ErrorType
	Code uint32
}

// ContractError builds an author-defined contract error.
func ContractError(code uint32) Error {
	return Error{Type: ErrorTypeContract, Code: code}
}

// HostError builds a host error of type t with a well-known code.
func HostError(t ErrorType, c ErrorCode) Error {
	return Error{Type: t, Code: uint32(c)}
}

// IsContract reports whether e carries an author-defined code.
func (e Error) IsContract() bool {
	return e.Type == ErrorTypeContract
}

func (e Error) Error() string {
	if e.Type == ErrorTypeContract {
		return "Error(Contract, #" + strconv.FormatUint(uint64(e.Code), 10) + ")"
	}
	return "Error(" + e.Type.String() + ", " + ErrorCode(e.Code).String() + ")"
}

// Val encodes e inline.
func (e Error) Val() Val {
	return FromError(e)
}

// ErrorFromErr maps a Go error onto the host error space so a failed
// invocation can be reported as an Error Val.
func ErrorFromErr(err error) Error {
	var ve Error
	if stderrors.As(err, &ve) {
		return ve
	}
	var se *errors.Error
	if !stderrors.As(err, &se) {
		return HostError(ErrorTypeContext, CodeInternalError)
	}
	switch se.Kind {
	case errors.KindContract:
		if e, ok := se.Value.(Error); ok {
			return e
		}
		return HostError(ErrorTypeContext, CodeInternalError)
	case errors.KindRange:
		return HostError(ErrorTypeValue, CodeArithDomain)
	case errors.KindTypeMismatch:
		return HostError(ErrorTypeValue, CodeUnexpectedType)
	case errors.KindArgumentDecode:
		if se.Cause == nil {
			return HostError(ErrorTypeContext, CodeUnexpectedSize)
		}
		return HostError(ErrorTypeValue, CodeInvalidInput)
	case errors.KindHostAllocation:
		return HostError(ErrorTypeObject, CodeExceededLimit)
	case errors.KindNotFound:
		return HostError(ErrorTypeStorage, CodeMissingValue)
	case errors.KindNilPointer, errors.KindInvalidInput:
		return HostError(ErrorTypeValue, CodeInvalidInput)
	}
	return HostError(ErrorTypeContext, CodeInternalError)
}
