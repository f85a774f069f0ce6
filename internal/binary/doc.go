// Package binary provides bounded LEB128 readers and writers shared by the
// interface spec codec and the artifact section splicer.
//
// Reader works over an in-memory byte slice and tracks its absolute offset so
// that callers can report where a stream went bad. Sub carves out a
// length-prefixed region that must be consumed exactly.
package binary
