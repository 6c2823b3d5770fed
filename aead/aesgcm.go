package aead

import (
	"crypto/aes"
	"crypto/cipher"
	cryptorand "crypto/rand"
	"fmt"

	"github.com/wippyai/wasm-shield/errors"
)

// AlgorithmAESGCM is the registry name of the AES-256-GCM provider.
const AlgorithmAESGCM = "aes-gcm"

type aesGCMProvider struct{}

// NewAESGCM returns the AES-256-GCM provider.
func NewAESGCM() Provider {
	return aesGCMProvider{}
}

func (aesGCMProvider) Name() string {
	return AlgorithmAESGCM
}

func (aesGCMProvider) Description() string {
	return "AES-GCM (Galois/Counter Mode) 256-bit authenticated encryption"
}

func (aesGCMProvider) Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := cryptorand.Read(nonce); err != nil {
		return nil, errors.Encryption("generating nonce", err)
	}

	// Seal appends to the nonce slice, yielding nonce || ciphertext || tag.
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (aesGCMProvider) Decrypt(data, key []byte) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}

	if len(data) < NonceSize {
		return nil, errors.Decryption("ciphertext shorter than nonce")
	}
	nonce, ciphertext := data[:NonceSize], data[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Wrong key and tampered data are reported identically.
		return nil, errors.Decryption("authentication failed")
	}
	return plaintext, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	if err := checkKeySize(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Encryption("initializing AES cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Encryption("initializing GCM mode", err)
	}
	return aead, nil
}

func checkKeySize(key []byte) error {
	if len(key) != KeySize {
		return errors.KeyManagement(
			fmt.Sprintf("invalid key length: expected %d bytes, got %d", KeySize, len(key)), nil)
	}
	return nil
}
