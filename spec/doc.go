// Package spec defines contract interface specifications and their binary
// encoding.
//
// A specification is an ordered list of entries: functions, structs,
// unions, enums, error enums and events. Entries reference each other's
// types through UDT shapes by name.
//
// # Wire Format
//
// Entries are concatenated without a header. Each entry is framed as:
//
//	┌─────────┬──────────────────┬───────────────────┐
//	│ tag (1) │ uleb128 length   │ payload (length)  │
//	└─────────┴──────────────────┴───────────────────┘
//
// Strings inside payloads are uleb128-length-prefixed UTF-8 and counts are
// uleb128. A type shape is a kind byte followed by its operands:
//
//	Option(T)     0x40 T
//	Result(T, E)  0x41 T E
//	Vec(T)        0x42 T
//	Map(K, V)     0x43 K V
//	Tuple(T...)   0x44 count T...
//	BytesN(n)     0x45 n
//	Array(T, n)   0x46 T n
//	UDT(name)     0x50 name
//
// Primitive kinds take no operands.
//
// A struct payload is doc, lib and name, then one layout byte (0 for a
// positional Vec, 1 for a Map keyed by field name), then its fields.
//
// Decode skips entries with unknown tags so older readers accept streams
// from newer producers. Anything else out of place (truncation, a length
// prefix that disagrees with the payload, unknown shape kinds, invalid
// UTF-8, a UDT naming no entry) fails with errors.ErrSpecCorrupt.
//
// # Artifacts
//
// The same stream is stored in the "contractspecv0" custom section of a
// compiled contract and may also live in a standalone file (ReadFile,
// WriteFile). Key/value metadata uses EncodeMeta and DecodeMeta.
package spec

// Custom section names.
const (
	SectionSpec    = "contractspecv0"
	SectionMeta    = "contractmetav0"
	SectionEnvMeta = "contractenvmetav0"
)
