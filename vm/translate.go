package vm

import (
	mathrand "math/rand"

	"github.com/wippyai/wasm-shield/wasm"
)

// Translator converts WebAssembly instruction streams to VM bytecode.
// Translation is lossy: unmapped opcodes become Nop followed by the original
// byte, with a 30% chance of one extra junk byte.
type Translator struct {
	rng *mathrand.Rand
}

// NewTranslator creates a translator with a fresh obfuscation RNG.
func NewTranslator() *Translator {
	return &Translator{rng: newRand()}
}

// Translate converts the instruction bytes of a function body (local
// declarations already stripped) into a VM opcode stream ending with Exit.
func (t *Translator) Translate(instrs []byte) []byte {
	out := make([]byte, 0, len(instrs)*2)
	pos := 0

	for pos < len(instrs) {
		op := instrs[pos]
		pos++

		switch op {
		case wasm.OpI32Const:
			// Push carries a single immediate byte: the low byte of the
			// constant.
			v, n, err := wasm.ReadLEB128s(instrs, pos)
			if err != nil {
				out = append(out, byte(OpPush), 0)
				pos = len(instrs)
				break
			}
			pos += n
			out = append(out, byte(OpPush), byte(v))

		case wasm.OpLocalGet:
			pos = t.emitIndexed(&out, OpLoad, instrs, pos)

		case wasm.OpLocalSet:
			pos = t.emitIndexed(&out, OpStore, instrs, pos)

		case wasm.OpLocalTee:
			out = append(out, byte(OpDup))
			pos = t.emitIndexed(&out, OpStore, instrs, pos)

		case 0x6A: // i32.add
			out = append(out, byte(OpAdd))
		case 0x6B: // i32.sub
			out = append(out, byte(OpSub))
		case 0x6C: // i32.mul
			out = append(out, byte(OpMul))
		case 0x6D, 0x6E: // i32.div_s, i32.div_u
			out = append(out, byte(OpDiv))
		case 0x6F, 0x70: // i32.rem_s, i32.rem_u
			out = append(out, byte(OpRem))
		case 0x71: // i32.and
			out = append(out, byte(OpAnd))
		case 0x72: // i32.or
			out = append(out, byte(OpOr))
		case 0x73: // i32.xor
			out = append(out, byte(OpXor))

		case wasm.OpBr:
			pos = t.emitTarget(&out, OpJump, instrs, pos)
		case wasm.OpBrIf:
			pos = t.emitTarget(&out, OpJumpIf, instrs, pos)
		case wasm.OpCall:
			pos = t.emitTarget(&out, OpCall, instrs, pos)
		case wasm.OpReturn:
			out = append(out, byte(OpReturn))

		case wasm.OpNop:
			out = append(out, byte(OpNop))
		case wasm.OpDrop:
			out = append(out, byte(OpPop))

		default:
			out = append(out, byte(OpNop), op)
			if t.rng.Intn(10) < 3 {
				out = append(out, byte(t.rng.Intn(256)))
			}
		}
	}

	out = append(out, byte(OpExit))
	return out
}

// emitIndexed writes op plus a one-byte index operand read as LEB128.
func (t *Translator) emitIndexed(out *[]byte, op Opcode, instrs []byte, pos int) int {
	v, n, err := wasm.ReadLEB128u(instrs, pos)
	if err != nil {
		*out = append(*out, byte(op), 0)
		return len(instrs)
	}
	*out = append(*out, byte(op), byte(v))
	return pos + n
}

// emitTarget writes op plus a two-byte big-endian target operand.
func (t *Translator) emitTarget(out *[]byte, op Opcode, instrs []byte, pos int) int {
	v, n, err := wasm.ReadLEB128u(instrs, pos)
	if err != nil {
		*out = append(*out, byte(op), 0, 0)
		return len(instrs)
	}
	*out = append(*out, byte(op), byte(v>>8), byte(v))
	return pos + n
}
