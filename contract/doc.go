// Package contract turns Go functions into contract entry points.
//
// A contract is declared with a Builder and compiled once with Build:
//
//	var Token = contract.New("token").
//		Export("balance", balance, "id").
//		Doc("Returns the balance of id.").
//		Export("transfer", transfer, "from", "to", "amount").
//		Errors(TokenError(0)).
//		Event("transfer", TransferEvent{}).
//		MustBuild()
//
// Build extracts a shape for every parameter and result through the
// transcoder, collects the named types they mention in first-encounter
// order, and produces the interface specification. A function may take a
// *Env as its first parameter and may return a trailing error; neither
// appears in the specification.
//
// At run time the host calls Invoke (or Dispatch, which never fails and
// reports problems as Error values). The wrapper checks the argument
// count, decodes every argument, calls the function once and encodes its
// result. Argument problems carry the failing position so hosts can
// report which argument was wrong.
//
// Embed stores the specification and metadata in a compiled module's
// custom sections.
package contract
