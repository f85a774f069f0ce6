// Package testenv is an in-memory contract host for tests.
//
// An Env implements host.Host on top of a resource.Table. It keeps
// storage per contract and durability with live-until ledgers, records
// published events, hashes with SHA-256 and routes cross-contract calls
// to contracts registered with it:
//
//	env := testenv.New()
//	token := env.Register(tokenContract)
//	bal, err := testenv.Call[uint64](env, token, "balance", alice)
//
// Call frees the host objects behind its arguments and result once the
// result is decoded. ObjectStats reports allocations, which are logged at
// debug level.
//
// The storage state round-trips through snapshot.Snapshot with Snapshot
// and FromSnapshot.
package testenv
