package keys

import (
	cryptorand "crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wippyai/wasm-shield/errors"
)

// Size is the key length in bytes both built-in algorithms require.
const Size = 32

// Format selects the on-disk encoding of a written key.
type Format string

const (
	FormatHex    Format = "hex"
	FormatBase64 Format = "base64"
	FormatRaw    Format = "raw"
)

// ParseFormat maps a user-facing name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "hex":
		return FormatHex, nil
	case "base64":
		return FormatBase64, nil
	case "raw":
		return FormatRaw, nil
	default:
		return "", errors.InvalidInput(errors.PhaseKeys, fmt.Sprintf("unknown key format %q", s))
	}
}

// Generate returns a fresh 32-byte key from the cryptographic random source.
func Generate() ([]byte, error) {
	key := make([]byte, Size)
	if _, err := cryptorand.Read(key); err != nil {
		return nil, errors.KeyManagement("generating random key", err)
	}
	return key, nil
}

// ValidateLength rejects keys whose length differs from the algorithm
// requirement.
func ValidateLength(key []byte) error {
	if len(key) != Size {
		return errors.KeyManagement(
			fmt.Sprintf("invalid key length: expected %d bytes, got %d", Size, len(key)), nil)
	}
	return nil
}

// DecodeHex decodes a hexadecimal key string, tolerating surrounding
// whitespace.
func DecodeHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.KeyManagement("invalid hexadecimal key", err)
	}
	return key, nil
}

// DecodeBase64 decodes a standard-Base64 key string, tolerating surrounding
// whitespace.
func DecodeBase64(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.KeyManagement("invalid Base64 key", err)
	}
	return key, nil
}

// Encode renders a key in the given format. Raw keys have no text rendering;
// Encode reports their size instead.
func Encode(key []byte, format Format) string {
	switch format {
	case FormatHex:
		return hex.EncodeToString(key)
	case FormatBase64:
		return base64.StdEncoding.EncodeToString(key)
	default:
		return fmt.Sprintf("raw binary key (%d bytes)", len(key))
	}
}
