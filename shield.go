package wasmshield

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/aead"
	"github.com/wippyai/wasm-shield/envelope"
	"github.com/wippyai/wasm-shield/errors"
	"github.com/wippyai/wasm-shield/keys"
	"github.com/wippyai/wasm-shield/obfuscate"
	"github.com/wippyai/wasm-shield/wasm"
)

// Options configures a Protect invocation, and an EncryptFile invocation
// through FileOptions.
type Options struct {
	// Key encrypts with the given 32-byte key; nil generates a fresh one.
	Key []byte

	// Algorithm names the AEAD provider; empty defaults to aes-gcm.
	Algorithm string

	// Level selects the obfuscation transformations; zero skips obfuscation.
	Level obfuscate.Level
}

func (o Options) algorithm() string {
	if o.Algorithm == "" {
		return aead.AlgorithmAESGCM
	}
	return o.Algorithm
}

// Obfuscate parses, transforms and re-serializes a module without
// encrypting it.
func Obfuscate(data []byte, level obfuscate.Level) ([]byte, error) {
	m, err := wasm.ParseModule(data)
	if err != nil {
		return nil, err
	}
	out, err := obfuscate.Apply(m, level)
	if err != nil {
		return nil, err
	}
	return out.Encode(), nil
}

// Protect runs the full pipeline: parse, obfuscate (when a level is set),
// serialize, encrypt, frame. It returns the envelope bytes and the key used,
// which equals Options.Key when one was supplied.
func Protect(data []byte, opts Options) ([]byte, []byte, error) {
	payload := data
	if opts.Level != 0 {
		obfuscated, err := Obfuscate(data, opts.Level)
		if err != nil {
			return nil, nil, err
		}
		payload = obfuscated
	} else if err := wasm.ValidateHeader(data); err != nil {
		return nil, nil, err
	}

	key := opts.Key
	if key == nil {
		generated, err := keys.Generate()
		if err != nil {
			return nil, nil, err
		}
		key = generated
	}

	sealed, err := envelope.Seal(payload, key, opts.algorithm())
	if err != nil {
		return nil, nil, err
	}
	return sealed, key, nil
}

// Decrypt opens an envelope. The result is the module exactly as it was
// sealed; obfuscation is not reversed.
func Decrypt(data, key []byte) ([]byte, error) {
	return envelope.Open(data, key)
}

// FileOptions extends Options for the file-level operations.
type FileOptions struct {
	Options

	// KeyOutputPath receives a generated key. Empty derives
	// <output-stem>.wasm.key next to the output.
	KeyOutputPath string

	// KeyFormat selects the written key encoding; empty means Base64.
	KeyFormat keys.Format
}

// Pipeline bundles the ambient dependencies of the file-level operations so
// tests can substitute an in-memory filesystem and a capturing logger.
type Pipeline struct {
	FS  afero.Fs
	Log *zap.Logger
}

// NewPipeline returns a Pipeline on the OS filesystem with a no-op logger.
func NewPipeline() *Pipeline {
	return &Pipeline{FS: afero.NewOsFs(), Log: zap.NewNop()}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// EncryptFile protects inputPath into outputPath. When no key source is
// given, a fresh key is generated and written beside the output; the path is
// reported on the log channel, never stdout.
func (p *Pipeline) EncryptFile(inputPath, outputPath string, opts FileOptions) error {
	data, err := afero.ReadFile(p.FS, inputPath)
	if err != nil {
		return errors.IO(errors.PhaseEncrypt, inputPath, err)
	}

	generated := opts.Key == nil

	sealed, key, err := Protect(data, opts.Options)
	if err != nil {
		return err
	}

	if err := afero.WriteFile(p.FS, outputPath, sealed, 0o644); err != nil {
		return errors.IO(errors.PhaseEncrypt, outputPath, err)
	}

	if generated {
		keyPath := opts.KeyOutputPath
		if keyPath == "" {
			keyPath = keys.DefaultKeyPath(outputPath)
		}
		format := opts.KeyFormat
		if format == "" {
			format = keys.FormatBase64
		}
		if err := keys.WriteFile(p.FS, keyPath, key, format); err != nil {
			return err
		}
		p.logger().Info("generated key saved", zap.String("path", keyPath))
	}

	return nil
}

// DecryptFile opens the envelope at inputPath with the key file at keyPath
// and writes the recovered module to outputPath.
func (p *Pipeline) DecryptFile(inputPath, outputPath, keyPath string) error {
	data, err := afero.ReadFile(p.FS, inputPath)
	if err != nil {
		return errors.IO(errors.PhaseDecrypt, inputPath, err)
	}

	key, err := keys.ReadFile(p.FS, keyPath)
	if err != nil {
		return err
	}

	plain, err := Decrypt(data, key)
	if err != nil {
		return err
	}

	if err := afero.WriteFile(p.FS, outputPath, plain, 0o644); err != nil {
		return errors.IO(errors.PhaseDecrypt, outputPath, err)
	}
	return nil
}

// ObfuscateFile transforms inputPath at the given level and writes a raw
// (unencrypted) wasm binary to outputPath.
func (p *Pipeline) ObfuscateFile(inputPath, outputPath string, level obfuscate.Level) error {
	data, err := afero.ReadFile(p.FS, inputPath)
	if err != nil {
		return errors.IO(errors.PhaseObfuscate, inputPath, err)
	}

	out, err := Obfuscate(data, level)
	if err != nil {
		return err
	}

	if err := afero.WriteFile(p.FS, outputPath, out, 0o644); err != nil {
		return errors.IO(errors.PhaseObfuscate, outputPath, err)
	}
	return nil
}
