package aead

import (
	cryptorand "crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/wippyai/wasm-shield/errors"
)

// AlgorithmChaCha20Poly1305 is the registry name of the ChaCha20-Poly1305
// provider.
const AlgorithmChaCha20Poly1305 = "chacha20poly1305"

type chachaProvider struct{}

// NewChaCha20Poly1305 returns the ChaCha20-Poly1305 provider.
func NewChaCha20Poly1305() Provider {
	return chachaProvider{}
}

func (chachaProvider) Name() string {
	return AlgorithmChaCha20Poly1305
}

func (chachaProvider) Description() string {
	return "ChaCha20-Poly1305 stream cipher with Poly1305 authentication"
}

func (chachaProvider) Encrypt(plaintext, key []byte) ([]byte, error) {
	if err := checkKeySize(key); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.Encryption("initializing ChaCha20-Poly1305", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := cryptorand.Read(nonce); err != nil {
		return nil, errors.Encryption("generating nonce", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (chachaProvider) Decrypt(data, key []byte) ([]byte, error) {
	if err := checkKeySize(key); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.Encryption("initializing ChaCha20-Poly1305", err)
	}

	if len(data) < NonceSize {
		return nil, errors.Decryption("ciphertext shorter than nonce")
	}
	nonce, ciphertext := data[:NonceSize], data[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Decryption("authentication failed")
	}
	return plaintext, nil
}
