package val

import "strconv"

// ABIVersion identifies the Val bit layout and tag numbering below.
const ABIVersion = 0

// Bit layout of a Val.
const (
	TagBits   = 8
	BodyBits  = 56
	MajorBits = 32
	MinorBits = 24

	tagMask   = uint64(1)<<TagBits - 1
	minorMask = uint64(1)<<MinorBits - 1
	bodyMax   = uint64(1)<<BodyBits - 1

	// smallIntMax/Min bound the signed 56-bit inline range.
	smallIntMax = int64(1)<<(BodyBits-1) - 1
	smallIntMin = -(int64(1) << (BodyBits - 1))
)

// Tag is the discriminator stored in the low bits of a Val.
type Tag uint8

const (
	TagFalse          Tag = 0
	TagTrue           Tag = 1
	TagVoid           Tag = 2
	TagError          Tag = 3
	TagU32            Tag = 4
	TagI32            Tag = 5
	TagU64Small       Tag = 6
	TagI64Small       Tag = 7
	TagTimepointSmall Tag = 8
	TagDurationSmall  Tag = 9
	TagU128Small      Tag = 10
	TagI128Small      Tag = 11
	TagU256Small      Tag = 12
	TagI256Small      Tag = 13
	TagSymbolSmall    Tag = 14

	TagU64Object       Tag = 64
	TagI64Object       Tag = 65
	TagTimepointObject Tag = 66
	TagDurationObject  Tag = 67
	TagU128Object      Tag = 68
	TagI128Object      Tag = 69
	TagU256Object      Tag = 70
	TagI256Object      Tag = 71
	TagBytesObject     Tag = 72
	TagStringObject    Tag = 73
	TagSymbolObject    Tag = 74
	TagVecObject       Tag = 75
	TagMapObject       Tag = 76
	TagAddressObject   Tag = 77

	TagBad Tag = 0x7f
)

var tagNames = map[Tag]string{
	TagFalse:           "False",
	TagTrue:            "True",
	TagVoid:            "Void",
	TagError:           "Error",
	TagU32:             "U32",
	TagI32:             "I32",
	TagU64Small:        "U64Small",
	TagI64Small:        "I64Small",
	TagTimepointSmall:  "TimepointSmall",
	TagDurationSmall:   "DurationSmall",
	TagU128Small:       "U128Small",
	TagI128Small:       "I128Small",
	TagU256Small:       "U256Small",
	TagI256Small:       "I256Small",
	TagSymbolSmall:     "SymbolSmall",
	TagU64Object:       "U64Object",
	TagI64Object:       "I64Object",
	TagTimepointObject: "TimepointObject",
	TagDurationObject:  "DurationObject",
	TagU128Object:      "U128Object",
	TagI128Object:      "I128Object",
	TagU256Object:      "U256Object",
	TagI256Object:      "I256Object",
	TagBytesObject:     "BytesObject",
	TagStringObject:    "StringObject",
	TagSymbolObject:    "SymbolObject",
	TagVecObject:       "VecObject",
	TagMapObject:       "MapObject",
	TagAddressObject:   "AddressObject",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// Known reports whether t is part of the ABI.
func (t Tag) Known() bool {
	_, ok := tagNames[t]
	return ok
}

// IsObject reports whether values with this tag carry a host handle.
func (t Tag) IsObject() bool {
	return t >= TagU64Object && t <= TagAddressObject
}

// objectTagFor maps a small-integer tag to its object counterpart.
func objectTagFor(small Tag) Tag {
	switch small {
	case TagU64Small:
		return TagU64Object
	case TagI64Small:
		return TagI64Object
	case TagTimepointSmall:
		return TagTimepointObject
	case TagDurationSmall:
		return TagDurationObject
	case TagU128Small:
		return TagU128Object
	case TagI128Small:
		return TagI128Object
	case TagU256Small:
		return TagU256Object
	case TagI256Small:
		return TagI256Object
	case TagSymbolSmall:
		return TagSymbolObject
	}
	return TagBad
}
