// Package wasm provides WebAssembly binary parsing and encoding over raw sections.
//
// Unlike a full decoder, the parser splits a module into its ordered list of
// typed sections and keeps each section's payload bytes verbatim. Obfuscation
// passes read and rewrite those payloads directly; nothing here builds a typed
// AST. The encoder re-emits the header and sections losslessly, so
//
//	parsed, _ := wasm.ParseModule(data)
//	again, _ := wasm.ParseModule(parsed.Encode())
//	// parsed and again are structurally equal
//
// holds for every module the parser accepts.
//
// The package also carries the function-body helpers shared by the
// transformation passes (code-entry iteration, local-declaration scanning) and
// the LEB128 read/append primitives they all must agree on bit-for-bit.
package wasm
