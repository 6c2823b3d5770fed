package vm

import (
	cryptorand "crypto/rand"
	"crypto/sha256"
	"math/bits"

	"github.com/wippyai/wasm-shield/errors"
)

// saltSize is the number of random bytes prepended to encrypted bytecode.
const saltSize = 8

// EncryptBytecode encrypts a VM opcode stream with a SHA-256-expanded
// keystream seeded by the metadata key and a fresh random salt. The salt is
// written first in the output.
func EncryptBytecode(plain []byte, key [16]byte) ([]byte, error) {
	var salt [saltSize]byte
	if _, err := cryptorand.Read(salt[:]); err != nil {
		return nil, errors.Wrap(errors.PhaseVirtualize, errors.KindEncryption, err, "generating bytecode salt")
	}

	out := make([]byte, 0, saltSize+len(plain))
	out = append(out, salt[:]...)

	ks := keystream(key, salt, len(plain))
	for i, b := range plain {
		out = append(out, encryptByte(b, ks[i%len(ks)]))
	}
	return out, nil
}

// DecryptBytecode inverts EncryptBytecode, consuming the leading salt.
func DecryptBytecode(data []byte, key [16]byte) ([]byte, error) {
	if len(data) < saltSize {
		return nil, errors.Decryption("bytecode shorter than salt")
	}
	var salt [saltSize]byte
	copy(salt[:], data[:saltSize])
	body := data[saltSize:]

	if len(body) == 0 {
		return nil, nil
	}

	ks := keystream(key, salt, len(body))
	out := make([]byte, len(body))
	for i, b := range body {
		out[i] = decryptByte(b, ks[i%len(ks)])
	}
	return out, nil
}

// keystream expands the key and salt into at least n bytes of keystream:
// block 0 is SHA-256(key || salt); each following block re-hashes the previous
// block plus a single byte holding the size of the plaintext chunk that block
// covers (32, or the shorter tail).
func keystream(key [16]byte, salt [saltSize]byte, n int) []byte {
	h := sha256.New()
	h.Write(key[:])
	h.Write(salt[:])
	block := h.Sum(nil)

	stream := make([]byte, 0, ((n+31)/32)*32)
	remaining := n
	for remaining > 0 {
		chunk := remaining
		if chunk > 32 {
			chunk = 32
		}
		stream = append(stream, block...)

		h.Reset()
		h.Write(block)
		h.Write([]byte{byte(chunk)})
		block = h.Sum(nil)

		remaining -= chunk
	}
	return stream
}

// encryptByte applies the per-byte transform: XOR with the keystream byte,
// swap low nibbles 0x0 and 0xF, then rotate by four bits.
func encryptByte(b, k byte) byte {
	b ^= k
	b = swapNibbleEnds(b)
	return bits.RotateLeft8(b, 4)
}

// decryptByte applies the inverse transform in reverse order.
func decryptByte(b, k byte) byte {
	b = bits.RotateLeft8(b, 4)
	b = swapNibbleEnds(b)
	return b ^ k
}

// swapNibbleEnds replaces a low nibble of 0x0 with 0xF and vice versa. It is
// its own inverse.
func swapNibbleEnds(b byte) byte {
	switch b & 0x0F {
	case 0x00:
		return b | 0x0F
	case 0x0F:
		return b & 0xF0
	default:
		return b
	}
}
