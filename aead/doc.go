// Package aead defines the authenticated-encryption provider interface and
// the process-wide provider registry.
//
// A Provider seals and opens byte buffers with a caller-supplied key,
// prepending its fresh random nonce to the raw AEAD output. Two providers are
// built in: "aes-gcm" (AES-256-GCM) and "chacha20poly1305"; both require
// 32-byte keys and 12-byte nonces. Additional providers can be registered
// programmatically or discovered from shared libraries named by the
// WASMSHIELD_PLUGIN_PATH environment variable. Discovery failures are logged
// and skipped, never fatal.
package aead
