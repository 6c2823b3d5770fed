package wasm

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadLEB128u(t *testing.T) {
	tests := []struct {
		data  []byte
		want  uint32
		wantN int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7F}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xE5, 0x8E, 0x26}, 624485, 3},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 0xFFFFFFFF, 5},
	}

	for _, tt := range tests {
		v, n, err := ReadLEB128u(tt.data, 0)
		if err != nil {
			t.Errorf("ReadLEB128u(%x): %v", tt.data, err)
			continue
		}
		if v != tt.want || n != tt.wantN {
			t.Errorf("ReadLEB128u(%x): got (%d, %d), want (%d, %d)", tt.data, v, n, tt.want, tt.wantN)
		}
	}
}

func TestReadLEB128uTruncated(t *testing.T) {
	_, _, err := ReadLEB128u([]byte{0x80, 0x80}, 0)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}

	_, _, err = ReadLEB128u([]byte{}, 0)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("empty input: got %v, want ErrTruncated", err)
	}
}

func TestReadLEB128uOverflow(t *testing.T) {
	_, _, err := ReadLEB128u([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, 0)
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("got %v, want ErrOverflow", err)
	}
}

func TestAppendLEB128uRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16384, 624485, 0xFFFFFFFF} {
		enc := AppendLEB128u(nil, v)
		if len(enc) != LEB128Size(v) {
			t.Errorf("LEB128Size(%d): got %d, encoding is %d bytes", v, LEB128Size(v), len(enc))
		}
		got, n, err := ReadLEB128u(enc, 0)
		if err != nil {
			t.Fatalf("round trip %d: %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Errorf("round trip %d: got %d (%d bytes)", v, got, n)
		}
	}
}

func TestSkipLEB128(t *testing.T) {
	data := []byte{0xE5, 0x8E, 0x26, 0x0B}
	n, err := SkipLEB128(data, 0)
	if err != nil {
		t.Fatalf("SkipLEB128: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d, want 3", n)
	}

	if _, err := SkipLEB128([]byte{0x80}, 0); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestAppendLEB128uAgreesWithWriter(t *testing.T) {
	// The slice helpers and internal/binary writer must agree bit-for-bit.
	for _, v := range []uint32{0, 300, 70000, 0xFFFFFFFF} {
		enc := AppendLEB128u(nil, v)
		var buf bytes.Buffer
		writeRef(&buf, v)
		if !bytes.Equal(enc, buf.Bytes()) {
			t.Errorf("encodings disagree for %d: %x vs %x", v, enc, buf.Bytes())
		}
	}
}

func writeRef(buf *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}
