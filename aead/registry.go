package aead

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/wasm-shield/errors"
)

// The process-wide provider registry. Built-ins are installed once on first
// use; plug-in discovery may add more. Reads vastly outnumber writes after
// startup, so lookups hold the guard only for the map access.
var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}

	builtinsOnce sync.Once
)

func ensureBuiltins() {
	builtinsOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		for _, p := range []Provider{NewAESGCM(), NewChaCha20Poly1305()} {
			registry[p.Name()] = p
		}
	})
}

// Register adds or replaces a provider under its own name.
func Register(p Provider) {
	ensureBuiltins()
	registryMu.Lock()
	registry[p.Name()] = p
	registryMu.Unlock()
}

// Lookup returns the provider registered under name. Unknown names fail with
// an invalid-input error naming the missing provider.
func Lookup(name string) (Provider, error) {
	ensureBuiltins()
	registryMu.RLock()
	p, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.InvalidInput(errors.PhaseEncrypt, fmt.Sprintf("unknown encryption algorithm %q", name))
	}
	return p, nil
}

// Names returns the sorted names of all registered providers.
func Names() []string {
	ensureBuiltins()
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()

	sort.Strings(names)
	return names
}
