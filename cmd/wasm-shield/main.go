// Command wasm-shield obfuscates and encrypts WebAssembly modules for
// distribution to untrusted hosts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
