// Package errors provides structured error types for the contract SDK.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type and shape names,
// the contract function and argument index, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Path("point", "x").
//		GoType("int64").
//		Shape("string").
//		Detail("cannot decode string into integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseDecode, path, "int64", "string")
//	err := errors.Arity("transfer", 3, 2)
//
// Kind sentinels allow phase-independent matching:
//
//	if errors.Is(err, sdkerrors.ErrSpecCorrupt) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
