// Package wasmshield protects compiled WebAssembly modules distributed to
// untrusted hosts by combining semantics-preserving binary obfuscation with
// authenticated encryption of the resulting bytes.
//
// The library is organized into packages with distinct responsibilities:
//
//	wasmshield/          Root package with the pipeline entry points
//	├── wasm/            Raw-section binary parser, writer and body helpers
//	├── obfuscate/       The five obfuscation transformations and levels
//	├── vm/              Virtualization bytecode: opcodes, translator, cipher
//	├── envelope/        Encrypted envelope framing (header + ciphertext)
//	├── aead/            AEAD provider interface, registry and built-ins
//	├── keys/            Key generation, encoding and key-file handling
//	└── errors/          Structured error taxonomy
//
// # Quick Start
//
// Obfuscate and encrypt a module in one call:
//
//	out, key, err := wasmshield.Protect(wasmBytes, wasmshield.Options{
//	    Level:     obfuscate.LevelHigh,
//	    Algorithm: "aes-gcm",
//	})
//
// Decrypt an envelope back to (still obfuscated) wasm:
//
//	plain, err := wasmshield.Decrypt(envelopeBytes, key)
//
// Obfuscation is one-way: decryption restores the obfuscated module, never
// the original.
package wasmshield
