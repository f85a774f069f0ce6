// Package val defines the tagged, fixed-width value representation exchanged
// across the host/guest boundary.
//
// # Val Layout
//
// A Val is a 64-bit word. The low 8 bits are the tag, the upper 56 bits the
// body. Some tags split the body into a 32-bit major and a 24-bit minor part:
//
//	 63                    32 31            8 7        0
//	┌────────────────────────┬───────────────┬──────────┐
//	│ major (32)             │ minor (24)    │ tag (8)  │
//	└────────────────────────┴───────────────┴──────────┘
//
// These constants are the host ABI (see ABIVersion). Changing the tag width
// breaks every artifact compiled against it.
//
// # Inline and Object Values
//
// Booleans, void, 32-bit integers, errors, short symbols and integers whose
// magnitude fits in 56 bits are stored inline. Everything else lives in host
// memory and is referenced by an object handle carried in the major bits.
// Handles are capability tokens owned by the host; this package never frees
// them.
//
//	Tag              Inline payload
//	─────────────────────────────────────────────
//	False/True/Void  none
//	U32/I32          major = value
//	Error            major = code, minor = type
//	*Small           body = 56-bit value (signed for I*)
//	SymbolSmall      body = up to 9 chars, 6 bits each
//	*Object          major = handle
//
// # Structured Values
//
// Value is the structured tagged union (Vec, Map, String, ...). Lower turns a
// Value into a Val, allocating host objects through an ObjectStore as needed;
// Lift resolves a Val back into a Value.
//
// # Symbols
//
// Symbols use the alphabet [_0-9A-Za-z]. Up to SmallSymbolMaxLen characters
// are packed inline. Anything longer, or containing other characters, is
// encoded as a general string object rather than truncated.
package val
