// Package types defines the compiled type structures for fast transcoding.
//
// CompiledType holds the per-Go-type metadata (kind, fields, union cases,
// enum values, struct layout) resolved once by reflection, so encoding and
// decoding never re-inspect the Go type.
//
// # Key Types
//
//   - CompiledType: Cached type metadata
//   - Kind: Type discriminator (primitive, struct, vec, union, etc.)
//
// This package is internal to the transcoder.
package types
