// Package snapshot persists the storage state of a test environment.
//
// A Snapshot is the ledger parameters plus every stored entry: owning
// contract, key, value, durability and live-until ledger. Files use a
// canonical CBOR envelope, so equal snapshots produce identical bytes:
//
//	snap, err := snapshot.LoadFile("state.snap")
//	...
//	err = snap.SaveFile("state.snap")
//
// SaveFile writes through a temporary file and a rename, leaving the
// previous file untouched on failure. Malformed input fails to load with
// an error matching errors.ErrSnapshotCorrupt.
//
// SQLiteStore keeps any number of named snapshots in one database file.
package snapshot
