package obfuscate

import "github.com/wippyai/wasm-shield/wasm"

// instrKind categorizes an opcode for the split-point stack analyzer.
type instrKind int

const (
	kindPush instrKind = iota
	kindPop
	kindNeutral
	kindBlockStart
	kindBlockEnd
	kindBranch
	kindCall
	kindReturn
	kindOther
)

// minSplitGap is the minimum byte distance between consecutive split points.
const minSplitGap = 10

// analyzeOpcode returns the category and operand-stack delta of an opcode.
// The table is deliberately coarse: it only needs to be conservative enough
// that depth 0 plus block depth 0 identifies positions where the operand
// stack is genuinely empty.
func analyzeOpcode(op byte) (instrKind, int) {
	switch {
	case op >= 0x41 && op <= 0x44: // i32/i64/f32/f64.const
		return kindPush, 1
	case op == wasm.OpLocalGet:
		return kindPush, 1
	case op == wasm.OpLocalSet:
		return kindPop, -1
	case op == wasm.OpLocalTee:
		return kindNeutral, 0
	case op == 0x23: // global.get
		return kindPush, 1
	case op == 0x24: // global.set
		return kindPop, -1
	case op >= 0x28 && op <= 0x3E: // loads and stores
		return kindNeutral, 0
	case op == wasm.OpBlock || op == wasm.OpLoop:
		return kindBlockStart, 0
	case op == wasm.OpIf:
		return kindBlockStart, -1
	case op == wasm.OpElse || op == wasm.OpEnd:
		return kindBlockEnd, 0
	case op >= wasm.OpBr && op <= 0x0E: // br, br_if, br_table
		return kindBranch, 0
	case op == wasm.OpReturn:
		return kindReturn, 0
	case op == wasm.OpCall || op == 0x11: // call, call_indirect
		return kindCall, 0
	case op >= 0x45 && op <= 0x69: // tests, comparisons, unary ops
		return kindNeutral, -1
	case op >= 0x6A && op <= 0x7F: // binary arithmetic
		return kindNeutral, -1
	default:
		return kindOther, 0
	}
}

// operandWidth returns how many bytes of immediate operand follow an opcode,
// for the opcodes the analyzer walks past. LEB128-encoded immediates return
// their actual encoded width at pos.
func operandWidth(body []byte, op byte, pos int) int {
	switch op {
	case 0x41, 0x42: // i32.const, i64.const: LEB128
		n, err := wasm.SkipLEB128(body, pos)
		if err != nil {
			return len(body) - pos
		}
		return n
	case 0x43: // f32.const
		return min(4, len(body)-pos)
	case 0x44: // f64.const
		return min(8, len(body)-pos)
	case wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee, 0x23, 0x24, wasm.OpCall,
		wasm.OpBr, wasm.OpBrIf:
		n, err := wasm.SkipLEB128(body, pos)
		if err != nil {
			return len(body) - pos
		}
		return n
	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
		return min(1, len(body)-pos) // block type byte
	default:
		return 0
	}
}

// safeSplitPoints finds body offsets where a function can be cut: after a
// complete instruction, at operand-stack depth zero, outside any control
// block, not immediately after a return, and at least minSplitGap bytes past
// the previous point. Offsets are relative to the body start (including the
// local declarations); the final end instruction never yields a point.
func safeSplitPoints(body []byte) []int {
	declsEnd, err := wasm.LocalDeclsEnd(body)
	if err != nil {
		return nil
	}

	var points []int
	stackDepth := 0
	blockDepth := 0
	lastSafe := declsEnd
	pos := declsEnd

	for pos < len(body) {
		op := body[pos]
		pos++

		kind, delta := analyzeOpcode(op)
		stackDepth += delta

		switch kind {
		case kindBlockStart:
			blockDepth++
		case kindBlockEnd:
			if blockDepth > 0 {
				blockDepth--
			}
		}

		pos += operandWidth(body, op, pos)

		// The cut lands after the full instruction, immediates included.
		if stackDepth == 0 && blockDepth == 0 && kind != kindReturn &&
			pos-lastSafe >= minSplitGap && pos < len(body)-1 {
			points = append(points, pos)
			lastSafe = pos
		}
	}

	return points
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
