package vm

import (
	"bytes"
	"testing"
)

func TestTranslateArithmetic(t *testing.T) {
	// i32.const 5; i32.const 3; i32.add; end
	instrs := []byte{0x41, 0x05, 0x41, 0x03, 0x6A, 0x0B}

	out := NewTranslator().Translate(instrs)

	want := []byte{byte(OpPush), 5, byte(OpPush), 3, byte(OpAdd)}
	if !bytes.HasPrefix(out, want) {
		t.Errorf("got %x, want prefix %x", out, want)
	}
	if out[len(out)-1] != byte(OpExit) {
		t.Error("output must terminate with Exit")
	}
	// end (0x0B) is unmapped: Nop + original byte somewhere before Exit.
	if !bytes.Contains(out, []byte{byte(OpNop), 0x0B}) {
		t.Errorf("unmapped end opcode missing from %x", out)
	}
}

func TestTranslateLocals(t *testing.T) {
	// local.get 1; local.set 0; local.tee 2
	instrs := []byte{0x20, 0x01, 0x21, 0x00, 0x22, 0x02}

	out := NewTranslator().Translate(instrs)

	want := []byte{
		byte(OpLoad), 1,
		byte(OpStore), 0,
		byte(OpDup), byte(OpStore), 2,
		byte(OpExit),
	}
	if !bytes.Equal(out, want) {
		t.Errorf("got %x, want %x", out, want)
	}
}

func TestTranslateControlFlow(t *testing.T) {
	// br 0; br_if 1; call 300; return
	instrs := []byte{0x0C, 0x00, 0x0D, 0x01, 0x10, 0xAC, 0x02, 0x0F}

	out := NewTranslator().Translate(instrs)

	want := []byte{
		byte(OpJump), 0x00, 0x00,
		byte(OpJumpIf), 0x00, 0x01,
		byte(OpCall), 0x01, 0x2C, // 300 big-endian
		byte(OpReturn),
		byte(OpExit),
	}
	if !bytes.Equal(out, want) {
		t.Errorf("got %x, want %x", out, want)
	}
}

func TestTranslateUnmappedEmitsNopPlusByte(t *testing.T) {
	// global.get is outside the VM instruction set.
	instrs := []byte{0x23}

	out := NewTranslator().Translate(instrs)

	if out[0] != byte(OpNop) || out[1] != 0x23 {
		t.Errorf("got %x, want nop+0x23 prefix", out)
	}
	// Optional junk byte: output is 3 or 4 bytes including Exit.
	if len(out) != 3 && len(out) != 4 {
		t.Errorf("unexpected length %d: %x", len(out), out)
	}
	if out[len(out)-1] != byte(OpExit) {
		t.Error("missing Exit terminator")
	}
}

func TestTranslateEmptyStream(t *testing.T) {
	out := NewTranslator().Translate(nil)
	if !bytes.Equal(out, []byte{byte(OpExit)}) {
		t.Errorf("got %x, want bare Exit", out)
	}
}

func TestTranslateDropAndNop(t *testing.T) {
	instrs := []byte{0x01, 0x1A} // nop; drop

	out := NewTranslator().Translate(instrs)

	want := []byte{byte(OpNop), byte(OpPop), byte(OpExit)}
	if !bytes.Equal(out, want) {
		t.Errorf("got %x, want %x", out, want)
	}
}
