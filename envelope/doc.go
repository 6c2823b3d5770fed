// Package envelope implements the self-describing encrypted framing read by
// the in-browser decryption loader.
//
// The on-disk layout is a 4-byte little-endian header length, a UTF-8 JSON
// header carrying the algorithm name and the nonce bytes, then the AEAD
// ciphertext with its leading nonce stripped (the nonce travels in the
// header):
//
//	u32le(len(header)) || {"algorithm":"aes-gcm","nonce":[..12 bytes..]} || ciphertext+tag
//
// Algorithms other than the two built-ins fall back to a legacy framing of
// u8(len(name)) || name || raw provider output. Open auto-detects both
// layouts.
package envelope
