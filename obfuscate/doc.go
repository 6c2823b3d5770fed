// Package obfuscate implements the semantics-preserving transformations
// applied to parsed WebAssembly modules: local-variable index scrambling,
// dead-code insertion, control-flow perturbation, large-function splitting
// and function virtualization.
//
// Every transformation has the shape Module -> Module, never mutates its
// input, and produces a module that still parses as valid WebAssembly.
// Transformations compose left-to-right according to the chosen Level:
//
//	out, err := obfuscate.Apply(module, obfuscate.LevelHigh)
//
// Low applies local renaming only; Medium adds dead code; High adds
// control-flow perturbation, function splitting and virtualization.
package obfuscate
