package wasm

import "errors"

// LEB128 helpers shared by the parser, the writer and every transformation
// pass. The byte-slice forms below and the internal/binary reader must agree
// bit-for-bit.

// ErrOverflow is returned when a LEB128 value exceeds the maximum bit width.
var ErrOverflow = errors.New("leb128: overflow")

// ErrTruncated is returned when a LEB128 value runs off the end of the buffer.
var ErrTruncated = errors.New("leb128: truncated")

// ReadLEB128u reads an unsigned LEB128 uint32 from data starting at pos.
// It returns the value and the number of bytes consumed.
func ReadLEB128u(data []byte, pos int) (uint32, int, error) {
	var result uint32
	var shift uint
	n := 0
	for {
		if pos+n >= len(data) {
			return 0, 0, ErrTruncated
		}
		b := data[pos+n]
		n++
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, 0, ErrOverflow
		}
	}
}

// SkipLEB128 returns the number of bytes a LEB128 value occupies at pos,
// without decoding it. Used when walking instruction operands.
func SkipLEB128(data []byte, pos int) (int, error) {
	n := 0
	for {
		if pos+n >= len(data) {
			return 0, ErrTruncated
		}
		b := data[pos+n]
		n++
		if b&0x80 == 0 {
			return n, nil
		}
		if n >= 10 {
			return 0, ErrOverflow
		}
	}
}

// AppendLEB128u appends the unsigned LEB128 encoding of v to dst.
func AppendLEB128u(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// ReadLEB128s reads a signed LEB128 int32 from data starting at pos.
// It returns the value and the number of bytes consumed.
func ReadLEB128s(data []byte, pos int) (int32, int, error) {
	var result int32
	var shift uint
	var b byte
	n := 0
	for {
		if pos+n >= len(data) {
			return 0, 0, ErrTruncated
		}
		b = data[pos+n]
		n++
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 35 {
			return 0, 0, ErrOverflow
		}
	}
	// Sign extend
	if shift < 32 && b&0x40 != 0 {
		result |= ^int32(0) << shift
	}
	return result, n, nil
}

// AppendLEB128s appends the signed LEB128 encoding of v to dst. Instruction
// immediates such as i32.const take signed encodings even for non-negative
// values.
func AppendLEB128s(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// LEB128Size returns the number of bytes the unsigned LEB128 encoding of v occupies.
func LEB128Size(v uint32) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
