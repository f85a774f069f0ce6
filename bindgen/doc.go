// Package bindgen produces client bindings from an interface specification.
//
// Client calls a deployed contract knowing only its spec entries. It
// builds runtime Go types for every shape and encodes arguments with the
// same rules the contract decodes them by:
//
//	c, err := bindgen.NewClient(entries, env, addr)
//	res, err := c.Call(ctx, "transfer", from, to, 30)
//
// GenerateGo renders the same bindings as Go source: named types with
// the transcoder marker methods and a typed client calling through
// Invoke. GenerateWIT renders the interface as WIT text.
//
// Shapes without a form in the target fail with an error matching
// errors.ErrUnsupportedShape that names the function and parameter.
// Struct entries record their layout, so map-layout structs encode as
// symbol-keyed maps on both the runtime and generated paths.
package bindgen
