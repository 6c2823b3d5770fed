package aead_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-shield/aead"
	shielderrors "github.com/wippyai/wasm-shield/errors"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func providers() []aead.Provider {
	return []aead.Provider{aead.NewAESGCM(), aead.NewChaCha20Poly1305()}
}

func TestProvidersRoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("hello, wasm"),
		bytes.Repeat([]byte{0xAB}, 4096),
	}

	for _, p := range providers() {
		for _, plain := range plaintexts {
			sealed, err := p.Encrypt(plain, testKey)
			if err != nil {
				t.Fatalf("%s encrypt: %v", p.Name(), err)
			}
			// nonce + ciphertext + 16-byte tag
			if len(sealed) != aead.NonceSize+len(plain)+16 {
				t.Errorf("%s: sealed length %d, want %d", p.Name(), len(sealed), aead.NonceSize+len(plain)+16)
			}

			opened, err := p.Decrypt(sealed, testKey)
			if err != nil {
				t.Fatalf("%s decrypt: %v", p.Name(), err)
			}
			if !bytes.Equal(opened, plain) {
				t.Errorf("%s: round trip mismatch", p.Name())
			}
		}
	}
}

func TestProvidersFreshNonce(t *testing.T) {
	for _, p := range providers() {
		a, err := p.Encrypt([]byte("same input"), testKey)
		if err != nil {
			t.Fatal(err)
		}
		b, err := p.Encrypt([]byte("same input"), testKey)
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Equal(a[:aead.NonceSize], b[:aead.NonceSize]) {
			t.Errorf("%s: nonce repeated across encryptions", p.Name())
		}
	}
}

func TestProvidersWrongKeyFails(t *testing.T) {
	otherKey := bytes.Repeat([]byte{0x43}, 32)

	for _, p := range providers() {
		sealed, err := p.Encrypt([]byte("secret"), testKey)
		if err != nil {
			t.Fatal(err)
		}

		_, err = p.Decrypt(sealed, otherKey)
		if err == nil {
			t.Fatalf("%s: wrong-key decrypt succeeded", p.Name())
		}
		if shielderrors.KindOf(err) != shielderrors.KindDecryption {
			t.Errorf("%s: kind %q, want decryption", p.Name(), shielderrors.KindOf(err))
		}
	}
}

func TestProvidersTamperedCiphertextFails(t *testing.T) {
	for _, p := range providers() {
		sealed, err := p.Encrypt([]byte("secret"), testKey)
		if err != nil {
			t.Fatal(err)
		}
		sealed[len(sealed)-1] ^= 0x01

		if _, err := p.Decrypt(sealed, testKey); err == nil {
			t.Errorf("%s: tampered decrypt succeeded", p.Name())
		}
	}
}

func TestProvidersRejectBadKeyLength(t *testing.T) {
	for _, p := range providers() {
		for _, n := range []int{0, 16, 31, 33, 64} {
			key := make([]byte, n)

			if _, err := p.Encrypt([]byte("x"), key); shielderrors.KindOf(err) != shielderrors.KindKeyManagement {
				t.Errorf("%s encrypt with %d-byte key: kind %q, want key_management", p.Name(), n, shielderrors.KindOf(err))
			}
			if _, err := p.Decrypt(make([]byte, 40), key); shielderrors.KindOf(err) != shielderrors.KindKeyManagement {
				t.Errorf("%s decrypt with %d-byte key: kind %q, want key_management", p.Name(), n, shielderrors.KindOf(err))
			}
		}
	}
}

func TestProvidersRejectShortCiphertext(t *testing.T) {
	for _, p := range providers() {
		if _, err := p.Decrypt(make([]byte, aead.NonceSize-1), testKey); err == nil {
			t.Errorf("%s: accepted ciphertext shorter than nonce", p.Name())
		}
	}
}

func TestRegistryBuiltinsPresent(t *testing.T) {
	for _, name := range []string{"aes-gcm", "chacha20poly1305"} {
		p, err := aead.Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
			continue
		}
		if p.Name() != name {
			t.Errorf("Lookup(%q) returned provider %q", name, p.Name())
		}
	}
}

func TestRegistryUnknownAlgorithm(t *testing.T) {
	_, err := aead.Lookup("rot13")
	if err == nil {
		t.Fatal("expected error")
	}
	if shielderrors.KindOf(err) != shielderrors.KindInvalidInput {
		t.Errorf("kind: got %q, want invalid_input", shielderrors.KindOf(err))
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	names := aead.Names()
	if len(names) < 2 {
		t.Fatalf("got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestRegistryRegisterCustomProvider(t *testing.T) {
	aead.Register(fakeProvider{})

	p, err := aead.Lookup("fake")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	out, err := p.Encrypt([]byte("abc"), nil)
	if err != nil {
		t.Fatal(err)
	}
	back, err := p.Decrypt(out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != "abc" {
		t.Errorf("round trip: got %q", back)
	}
}

func TestDiscoverPluginsUnsetEnvIsNoop(t *testing.T) {
	t.Setenv(aead.PluginPathEnv, "")
	if err := aead.DiscoverPlugins(nil); err != nil {
		t.Errorf("unset env must not error: %v", err)
	}
}

func TestDiscoverPluginsMissingDirIsNoop(t *testing.T) {
	t.Setenv(aead.PluginPathEnv, "/nonexistent/plugin/dir")
	if err := aead.DiscoverPlugins(nil); err != nil {
		t.Errorf("missing dir must not error: %v", err)
	}
}

type fakeProvider struct{}

func (fakeProvider) Name() string        { return "fake" }
func (fakeProvider) Description() string { return "identity cipher for tests" }

func (fakeProvider) Encrypt(plaintext, _ []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return out, nil
}

func (fakeProvider) Decrypt(data, _ []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
