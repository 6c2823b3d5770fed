package vm

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
)

// GenerateOpcodeMap produces a 256-entry byte permutation by Fisher-Yates
// shuffle with a fresh per-invocation RNG. The Exit fixed point
// map[0xFF] == 0xFF is re-enforced after shuffling so termination stays
// recognizable under any map.
func GenerateOpcodeMap() [256]byte {
	return generateOpcodeMap(newRand())
}

func generateOpcodeMap(rng *mathrand.Rand) [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = byte(i)
	}

	for i := 255; i >= 1; i-- {
		j := rng.Intn(i + 1)
		m[i], m[j] = m[j], m[i]
	}

	// Swap Exit back into place so the map stays a permutation.
	for i := range m {
		if m[i] == byte(OpExit) {
			m[i], m[0xFF] = m[0xFF], m[i]
			break
		}
	}
	return m
}

// IdentityOpcodeMap returns the map that leaves every byte unchanged.
func IdentityOpcodeMap() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = byte(i)
	}
	return m
}

// newRand seeds a math/rand generator from the OS entropy source. The
// sequence only drives obfuscation choices, never key material.
func newRand() *mathrand.Rand {
	var seed [8]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// Shuffle seeding can fall back to a constant; key material cannot.
		return mathrand.New(mathrand.NewSource(1))
	}
	return mathrand.New(mathrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}
