package val

import (
	"fmt"
)

// Val is the fixed-width word passed across the host boundary.
type Val uint64

// Pre-defined inline values
const (
	False Val = Val(TagFalse)
	True  Val = Val(TagTrue)
	Void  Val = Val(TagVoid)
)

// Tag returns the discriminator.
func (v Val) Tag() Tag {
	return Tag(uint64(v) & tagMask)
}

// Body returns the 56-bit payload.
func (v Val) Body() uint64 {
	return uint64(v) >> TagBits
}

// Major returns the upper 32 bits of the body.
func (v Val) Major() uint32 {
	return uint32(uint64(v) >> (TagBits + MinorBits))
}

// Minor returns the lower 24 bits of the body.
func (v Val) Minor() uint32 {
	return uint32((uint64(v) >> TagBits) & minorMask)
}

// IsObject reports whether v references a host object.
func (v Val) IsObject() bool {
	return v.Tag().IsObject()
}

// Handle returns the host object handle. Only meaningful when IsObject.
func (v Val) Handle() uint32 {
	return v.Major()
}

// Valid reports whether v has a known tag and its unused bits are zero.
func (v Val) Valid() bool {
	switch t := v.Tag(); {
	case t == TagFalse || t == TagTrue || t == TagVoid:
		return v.Body() == 0
	case t == TagU32 || t == TagI32:
		return v.Minor() == 0
	case t == TagError:
		return true
	case t == TagSymbolSmall:
		_, ok := decodeSmallSymbol(v.Body())
		return ok
	case t >= TagU64Small && t <= TagI256Small:
		return true
	case t.IsObject():
		return v.Minor() == 0
	default:
		return false
	}
}

func (v Val) String() string {
	switch t := v.Tag(); t {
	case TagFalse:
		return "false"
	case TagTrue:
		return "true"
	case TagVoid:
		return "void"
	case TagU32:
		return fmt.Sprintf("%du32", v.Major())
	case TagI32:
		return fmt.Sprintf("%di32", int32(v.Major()))
	case TagError:
		return fmt.Sprintf("Error(%s, %d)", ErrorType(v.Minor()), v.Major())
	case TagSymbolSmall:
		s, _ := decodeSmallSymbol(v.Body())
		return "sym:" + s
	case TagU64Small, TagTimepointSmall, TagDurationSmall, TagU128Small, TagU256Small:
		return fmt.Sprintf("%s(%d)", t, v.Body())
	case TagI64Small, TagI128Small, TagI256Small:
		return fmt.Sprintf("%s(%d)", t, v.smallSigned())
	default:
		if t.IsObject() {
			return fmt.Sprintf("%s#%d", t, v.Handle())
		}
		return fmt.Sprintf("Val(0x%016x)", uint64(v))
	}
}

func fromBody(tag Tag, body uint64) Val {
	return Val(body<<TagBits | uint64(tag))
}

func fromMajorMinor(tag Tag, major, minor uint32) Val {
	return Val(uint64(major)<<(TagBits+MinorBits) | (uint64(minor)&minorMask)<<TagBits | uint64(tag))
}

// smallSigned sign-extends the 56-bit body.
func (v Val) smallSigned() int64 {
	return int64(v) >> TagBits
}

// FromHandle builds an object Val. tag must be an object tag.
func FromHandle(tag Tag, handle uint32) Val {
	return fromMajorMinor(tag, handle, 0)
}

// FromBool encodes a boolean.
func FromBool(b bool) Val {
	if b {
		return True
	}
	return False
}

// FromU32 encodes a uint32 inline.
func FromU32(n uint32) Val {
	return fromMajorMinor(TagU32, n, 0)
}

// FromI32 encodes an int32 inline.
func FromI32(n int32) Val {
	return fromMajorMinor(TagI32, uint32(n), 0)
}

// FromError encodes an error value inline.
func FromError(e Error) Val {
	return fromMajorMinor(TagError, e.Code, uint32(e.Type))
}

// SmallUnsigned encodes n inline under tag if it fits in 56 bits.
func SmallUnsigned(tag Tag, n uint64) (Val, bool) {
	if n > bodyMax {
		return 0, false
	}
	return fromBody(tag, n), true
}

// SmallSigned encodes n inline under tag if it fits in signed 56 bits.
func SmallSigned(tag Tag, n int64) (Val, bool) {
	if n > smallIntMax || n < smallIntMin {
		return 0, false
	}
	return fromBody(tag, uint64(n)&bodyMax), true
}

// Bool decodes a boolean.
func (v Val) Bool() (bool, bool) {
	switch v {
	case True:
		return true, true
	case False:
		return false, true
	}
	return false, false
}

// U32 decodes an inline uint32.
func (v Val) U32() (uint32, bool) {
	if v.Tag() != TagU32 || v.Minor() != 0 {
		return 0, false
	}
	return v.Major(), true
}

// I32 decodes an inline int32.
func (v Val) I32() (int32, bool) {
	if v.Tag() != TagI32 || v.Minor() != 0 {
		return 0, false
	}
	return int32(v.Major()), true
}

// AsError decodes an inline error.
func (v Val) AsError() (Error, bool) {
	if v.Tag() != TagError {
		return Error{}, false
	}
	return Error{Type: ErrorType(v.Minor()), Code: v.Major()}, true
}

// SmallUnsignedBody returns the body of an unsigned small-integer Val.
func (v Val) SmallUnsignedBody() uint64 {
	return v.Body()
}

// SmallSignedBody returns the sign-extended body of a signed small-integer Val.
func (v Val) SmallSignedBody() int64 {
	return v.smallSigned()
}
