package envelope

import (
	"encoding/binary"
	"encoding/json"
	"unicode/utf8"

	"github.com/wippyai/wasm-shield/aead"
	"github.com/wippyai/wasm-shield/errors"
)

// Header is the JSON object preceding the ciphertext. Nonce entries are byte
// values serialized as integers.
type Header struct {
	Algorithm string `json:"algorithm"`
	Nonce     []byte `json:"nonce"`
}

// headerJSON is the wire shape: JSON has no byte arrays, so the nonce is an
// integer array that must be range-checked on the way in.
type headerJSON struct {
	Algorithm *string `json:"algorithm"`
	Nonce     []int   `json:"nonce"`
}

// Seal encrypts plaintext with the named provider and frames the result.
// The built-in aes-gcm and chacha20poly1305 algorithms produce the
// JSON-header layout; any other algorithm name, including a plug-in with a
// 12-byte nonce, falls back to legacy framing.
func Seal(plaintext, key []byte, algorithm string) ([]byte, error) {
	provider, err := aead.Lookup(algorithm)
	if err != nil {
		return nil, err
	}

	sealed, err := provider.Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}

	if (algorithm == aead.AlgorithmAESGCM || algorithm == aead.AlgorithmChaCha20Poly1305) &&
		len(sealed) >= aead.NonceSize {
		return frameJSON(algorithm, sealed[:aead.NonceSize], sealed[aead.NonceSize:])
	}

	return frameLegacy(algorithm, sealed), nil
}

// Open parses an envelope and decrypts its payload. The JSON-header layout is
// tried first; inputs that do not look like it fall back to legacy parsing.
func Open(data, key []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.Decryption("encrypted data is empty")
	}

	if hdr, ciphertext, ok, err := parseJSONFraming(data); ok {
		if err != nil {
			return nil, err
		}
		provider, err := aead.Lookup(hdr.Algorithm)
		if err != nil {
			return nil, errors.Decryption("unknown algorithm in envelope header")
		}

		// The provider expects its nonce back in front of the ciphertext.
		joined := make([]byte, 0, len(hdr.Nonce)+len(ciphertext))
		joined = append(joined, hdr.Nonce...)
		joined = append(joined, ciphertext...)
		return provider.Decrypt(joined, key)
	}

	return openLegacy(data, key)
}

// ParseHeader extracts the header of a JSON-framed envelope without
// decrypting. Useful for inspection tooling.
func ParseHeader(data []byte) (*Header, error) {
	hdr, _, ok, err := parseJSONFraming(data)
	if !ok {
		return nil, errors.Decryption("no envelope header present")
	}
	if err != nil {
		return nil, err
	}
	return hdr, nil
}

func frameJSON(algorithm string, nonce, ciphertext []byte) ([]byte, error) {
	hdr := headerJSON{Algorithm: &algorithm, Nonce: make([]int, len(nonce))}
	for i, b := range nonce {
		hdr.Nonce[i] = int(b)
	}

	headerBytes, err := json.Marshal(hdr)
	if err != nil {
		return nil, errors.Encryption("marshaling envelope header", err)
	}

	out := make([]byte, 0, 4+len(headerBytes)+len(ciphertext))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(headerBytes)))
	out = append(out, headerBytes...)
	out = append(out, ciphertext...)
	return out, nil
}

// parseJSONFraming probes for the JSON-header layout. ok reports whether the
// buffer plausibly uses it; err is set only when it does but the header is
// malformed — those are decryption errors, not a cue to try legacy parsing.
func parseJSONFraming(data []byte) (*Header, []byte, bool, error) {
	if len(data) < 4 {
		return nil, nil, false, nil
	}
	headerLen := int(binary.LittleEndian.Uint32(data[:4]))
	if headerLen <= 0 || headerLen > len(data)-4 {
		return nil, nil, false, nil
	}

	headerBytes := data[4 : 4+headerLen]
	if !utf8.Valid(headerBytes) || len(headerBytes) == 0 || headerBytes[0] != '{' {
		return nil, nil, false, nil
	}

	var raw headerJSON
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, nil, true, errors.Decryption("malformed envelope header")
	}
	if raw.Algorithm == nil {
		return nil, nil, true, errors.Decryption("envelope header missing algorithm")
	}
	if raw.Nonce == nil {
		return nil, nil, true, errors.Decryption("envelope header missing nonce")
	}

	hdr := &Header{Algorithm: *raw.Algorithm, Nonce: make([]byte, len(raw.Nonce))}
	for i, v := range raw.Nonce {
		if v < 0 || v > 255 {
			return nil, nil, true, errors.Decryption("envelope header nonce value out of range")
		}
		hdr.Nonce[i] = byte(v)
	}

	if (hdr.Algorithm == aead.AlgorithmAESGCM || hdr.Algorithm == aead.AlgorithmChaCha20Poly1305) &&
		len(hdr.Nonce) != aead.NonceSize {
		return nil, nil, true, errors.Decryption("envelope header nonce has wrong length")
	}

	return hdr, data[4+headerLen:], true, nil
}

func frameLegacy(algorithm string, sealed []byte) []byte {
	out := make([]byte, 0, 1+len(algorithm)+len(sealed))
	out = append(out, byte(len(algorithm)))
	out = append(out, algorithm...)
	out = append(out, sealed...)
	return out
}

func openLegacy(data, key []byte) ([]byte, error) {
	nameLen := int(data[0])
	if len(data) < 1+nameLen {
		return nil, errors.Decryption("malformed envelope")
	}
	name := string(data[1 : 1+nameLen])
	if !utf8.ValidString(name) {
		return nil, errors.Decryption("malformed envelope")
	}

	provider, err := aead.Lookup(name)
	if err != nil {
		return nil, errors.Decryption("unknown algorithm in envelope")
	}
	return provider.Decrypt(data[1+nameLen:], key)
}
