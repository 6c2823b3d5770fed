package obfuscate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	mathrand "math/rand"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/wasm"
)

// localScrambleKey seeds the HMAC that makes renaming deterministic for a
// given input: the same module always scrambles the same way.
const localScrambleKey = "wasm-shield/locals"

// maxScrambledLocal caps replacement indices. Staying at or below the
// original index (and never above 3) keeps every rewritten index inside the
// range the function declares without parsing its locals.
const maxScrambledLocal = 3

// RenameLocals scrambles single-byte local and global index operands in every
// function body. Instructions in the range local.get..global.set (0x20-0x24)
// with a one-byte (high bit clear) operand get a deterministically-seeded
// replacement in 0..min(original, 3). Multi-byte LEB128 operands are left
// untouched, so body sizes never change.
func RenameLocals(m *wasm.Module) (*wasm.Module, error) {
	log := Logger()
	out := m.Clone()

	sec := out.Section(wasm.SectionCode)
	if sec == nil {
		return out, nil
	}

	_, entries, err := wasm.CodeEntries(sec.Body)
	if err != nil {
		return nil, err
	}

	rewritten := 0
	for _, e := range entries {
		body := sec.Body[e.BodyStart:e.BodyEnd]
		declsEnd, err := wasm.LocalDeclsEnd(body)
		if err != nil {
			return nil, err
		}

		pos := declsEnd
		for pos+1 < len(body) {
			op := body[pos]
			if op < wasm.OpLocalGet || op > 0x24 || body[pos+1]&0x80 != 0 {
				pos++
				continue
			}

			// Section-relative position keys the HMAC so identical opcode
			// windows at different offsets scramble differently.
			secPos := e.BodyStart + pos
			if secPos+3 > len(sec.Body) {
				break
			}
			original := int(body[pos+1])
			body[pos+1] = scrambledIndex(secPos, sec.Body[secPos:secPos+3], original)
			rewritten++
			pos += 2
		}
	}

	log.Debug("local renaming completed", zap.Int("operands", rewritten))
	return out, nil
}

// scrambledIndex derives the replacement operand: HMAC-SHA256 over the
// position and the three bytes at it, first eight digest bytes seeding a PRNG
// that picks uniformly from 0..min(original, 3).
func scrambledIndex(pos int, window []byte, original int) byte {
	mac := hmac.New(sha256.New, []byte(localScrambleKey))

	var posBytes [8]byte
	binary.LittleEndian.PutUint64(posBytes[:], uint64(pos))
	mac.Write(posBytes[:])
	mac.Write(window)

	digest := mac.Sum(nil)
	seed := int64(binary.LittleEndian.Uint64(digest[:8]))

	limit := original
	if limit > maxScrambledLocal {
		limit = maxScrambledLocal
	}
	rng := mathrand.New(mathrand.NewSource(seed))
	return byte(rng.Intn(limit + 1))
}
