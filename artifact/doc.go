// Package artifact reads and rewrites the custom sections of compiled
// contract modules.
//
// A compiled contract is a core wasm module. The SDK stores the interface
// specification in the "contractspecv0" custom section and key/value
// metadata in "contractmetav0" and "contractenvmetav0". Writing a section
// removes every earlier section with the same name, so embedding is
// idempotent.
//
// Section surgery works on raw bytes and leaves all other sections
// untouched and in order. Inspect additionally compiles the module with
// wazero to validate it and list its exports.
package artifact
