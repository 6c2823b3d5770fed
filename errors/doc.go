// Package errors provides structured error types for the wasm-shield library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: the file being processed, a detail message, and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecrypt, errors.KindDecryption).
//		File("module.wasm.enc").
//		Detail("malformed envelope header").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidInput(errors.PhaseParse, "bad magic number")
//	err := errors.Wrap(errors.PhaseEncrypt, errors.KindIo, cause, "writing output")
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when their Kinds are equal, so callers
// can classify failures without string matching.
package errors
