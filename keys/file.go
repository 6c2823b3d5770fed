package keys

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/wippyai/wasm-shield/errors"
)

// KeyFileSuffix is the naming convention for auto-generated key files placed
// alongside an output: <output-stem>.wasm.key.
const KeyFileSuffix = ".wasm.key"

// DefaultKeyPath returns the conventional key-file path for an output file.
func DefaultKeyPath(outputPath string) string {
	stem := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return stem + KeyFileSuffix
}

// ReadFile loads a key file. The content is tried as hex first, then Base64;
// trailing whitespace is stripped. Content decodable as neither is returned
// as raw bytes.
func ReadFile(fs afero.Fs, path string) ([]byte, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.IO(errors.PhaseKeys, path, err)
	}

	text := strings.TrimSpace(string(content))

	if key, err := DecodeHex(text); err == nil {
		return key, nil
	}
	if key, err := DecodeBase64(text); err == nil {
		return key, nil
	}
	return []byte(text), nil
}

// WriteFile stores a key in the given format. Hex and Base64 are written as
// single-line text; raw writes the key bytes directly.
func WriteFile(fs afero.Fs, path string, key []byte, format Format) error {
	var content []byte
	switch format {
	case FormatRaw:
		content = key
	case FormatHex, FormatBase64:
		content = []byte(Encode(key, format))
	default:
		return errors.InvalidInput(errors.PhaseKeys, "unknown key format")
	}

	if err := afero.WriteFile(fs, path, content, 0o600); err != nil {
		return errors.IO(errors.PhaseKeys, path, err)
	}
	return nil
}

// Sources names every place a key may come from. Resolution priority:
// inline hex, inline Base64, key file, then generate-new (nil return).
type Sources struct {
	Hex    string
	Base64 string
	File   string
}

// Resolve returns the key from the highest-priority source, validated to the
// algorithm length, or nil when no source is set.
func Resolve(fs afero.Fs, src Sources) ([]byte, error) {
	var key []byte
	var err error

	switch {
	case src.Hex != "":
		key, err = DecodeHex(src.Hex)
	case src.Base64 != "":
		key, err = DecodeBase64(src.Base64)
	case src.File != "":
		key, err = ReadFile(fs, src.File)
	default:
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	if err := ValidateLength(key); err != nil {
		return nil, err
	}
	return key, nil
}
