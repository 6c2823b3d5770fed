// Package keys handles encryption key material: generation, hex/Base64
// decoding, key-file reading and writing, and resolution across the sources a
// caller may offer.
//
// Key files are single-line text, Base64 by default with hex auto-detected on
// read; trailing whitespace is tolerated. Raw binary files are written only
// on explicit request. Resolution priority when several sources are given is
// inline hex, then inline Base64, then key file, then generate-new.
//
// All filesystem access goes through an afero.Fs so callers and tests can
// substitute an in-memory filesystem.
package keys
