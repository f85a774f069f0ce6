// Package contractsdk is a Go SDK for writing smart contracts against a
// host that passes every value as a tagged 64-bit word.
//
// A contract is an ordinary set of Go functions. The SDK compiles their
// signatures into an interface spec, embeds that spec in the wasm module,
// and generates typed clients from it.
//
// # Architecture Overview
//
//	contractsdk/
//	├── val/           Tagged Val words and the host-side Value model
//	├── host/          Host interface: storage, objects, events, ledger info
//	├── spec/          Interface spec entries, binary codec, diffing
//	├── transcoder/    Reflection-compiled Go <-> Value codec
//	├── contract/      Builder that exports Go functions and derives the spec
//	├── artifact/      Wasm custom sections, export checks (wazero)
//	├── bindgen/       Runtime client, Go client generator, WIT generator
//	├── testenv/       In-memory host for unit tests
//	├── snapshot/      Ledger storage snapshots (CBOR files, SQLite store)
//	├── manifest/      contract.toml project manifest
//	├── resource/      Handle table backing host objects
//	├── errors/        Structured error types
//	└── cmd/contractspec  CLI: inspect, embed, bindgen, diff, snapshot, browse
//
// # Quick Start
//
// Declare and test a contract:
//
//	func increment(env *contract.Env, by uint32) (uint32, error) {
//	    n, err := contract.GetOr(env.Instance(), val.Symbol("count"), uint32(0))
//	    if err != nil {
//	        return 0, err
//	    }
//	    n += by
//	    return n, env.Instance().Set(val.Symbol("count"), n)
//	}
//
//	var counter = contract.New("counter").
//	    Export("increment", increment, "by").
//	    MustBuild()
//
//	env := testenv.New()
//	id := env.Register(counter)
//	n, err := testenv.Call[uint32](env, id, "increment", uint32(5))
//
// Generate a client for a built module:
//
//	entries, err := artifact.ReadSpec(wasm)
//	src, err := bindgen.GenerateGo(entries, bindgen.Options{Package: "counter"})
//
// # Error Handling
//
// Errors from every package are *errors.Error values carrying the phase
// that failed, a kind, and the value path:
//
//	if e, ok := err.(*errors.Error); ok {
//	    fmt.Println(e.Phase, e.Kind, e.Path)
//	}
//
// Sentinels such as errors.ErrTypeMismatch match by kind with errors.Is.
package contractsdk
