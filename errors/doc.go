// Package errors provides structured error types for the wasm-embed library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Kind set mirrors the embedding taxonomy: decode failures,
// link failures, runtime traps, resource-limit violations, and contract
// violations by the caller.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindContract).
//		Path("add", "param[1]").
//		Detail("want i32, got f64").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Decode(cause)
//	err := errors.Trap(errors.TrapOutOfBounds, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
