package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse      Phase = "parse"      // wasm binary parsing
	PhaseEncode     Phase = "encode"     // wasm binary writing
	PhaseObfuscate  Phase = "obfuscate"  // obfuscation transformations
	PhaseVirtualize Phase = "virtualize" // function virtualization
	PhaseEncrypt    Phase = "encrypt"    // envelope encryption
	PhaseDecrypt    Phase = "decrypt"    // envelope decryption
	PhaseKeys       Phase = "keys"       // key loading and generation
	PhasePlugin     Phase = "plugin"     // AEAD plug-in discovery
	PhaseCLI        Phase = "cli"        // command-line driver
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"  // malformed arguments, unknown algorithm, bad header
	KindWasmParser    Kind = "wasm_parser"    // structural error inside a wasm body
	KindEncryption    Kind = "encryption"     // AEAD encrypt failure
	KindDecryption    Kind = "decryption"     // AEAD decrypt failure, bad envelope, auth failure
	KindKeyManagement Kind = "key_management" // wrong key length, undecodable key material
	KindIo            Kind = "io"             // filesystem failures
	KindConfig        Kind = "config"         // configuration and discovery failures
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	FileName string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.FileName != "" {
		b.WriteString(" (")
		b.WriteString(e.FileName)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind.
// Phase and detail are intentionally ignored so callers can classify
// failures by kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, or "" otherwise.
func KindOf(err error) Kind {
	for err != nil {
		if se, ok := err.(*Error); ok {
			return se.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// File sets the name of the file being processed
func (b *Builder) File(name string) *Builder {
	b.err.FileName = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// ParseFailed creates a wasm structural error
func ParseFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindWasmParser,
		Detail: detail,
		Cause:  cause,
	}
}

// Decryption creates a decryption error. The message never distinguishes
// wrong-key from tampered ciphertext.
func Decryption(detail string) *Error {
	return &Error{
		Phase:  PhaseDecrypt,
		Kind:   KindDecryption,
		Detail: detail,
	}
}

// Encryption creates an encryption error
func Encryption(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseEncrypt,
		Kind:   KindEncryption,
		Detail: detail,
		Cause:  cause,
	}
}

// KeyManagement creates a key management error
func KeyManagement(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseKeys,
		Kind:   KindKeyManagement,
		Detail: detail,
		Cause:  cause,
	}
}

// IO creates a filesystem error naming the file involved
func IO(phase Phase, file string, cause error) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindIo,
		FileName: file,
		Cause:    cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
