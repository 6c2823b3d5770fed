package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-shield/errors"
)

// BodyRange marks one function entry inside a Code section payload.
// SizeStart is the offset of the LEB128 size prefix, BodyStart the first byte
// after it, BodyEnd one past the last body byte.
type BodyRange struct {
	SizeStart int
	BodyStart int
	BodyEnd   int
}

// Size returns the declared body size in bytes.
func (r BodyRange) Size() int {
	return r.BodyEnd - r.BodyStart
}

// CodeEntries walks a Code section payload and returns the function count and
// the range of every function entry. The ranges cover the whole payload; a
// body whose declared size overruns the buffer is a structural error.
func CodeEntries(code []byte) (uint32, []BodyRange, error) {
	count, n, err := ReadLEB128u(code, 0)
	if err != nil {
		return 0, nil, errors.ParseFailed("code section function count", err)
	}

	entries := make([]BodyRange, 0, count)
	pos := n
	for i := uint32(0); i < count; i++ {
		sizeStart := pos
		size, sn, err := ReadLEB128u(code, pos)
		if err != nil {
			return 0, nil, errors.ParseFailed(fmt.Sprintf("function %d body size", i), err)
		}
		bodyStart := pos + sn
		bodyEnd := bodyStart + int(size)
		if bodyEnd > len(code) {
			return 0, nil, errors.ParseFailed(fmt.Sprintf("function %d body overruns code section", i), nil)
		}
		entries = append(entries, BodyRange{SizeStart: sizeStart, BodyStart: bodyStart, BodyEnd: bodyEnd})
		pos = bodyEnd
	}

	return count, entries, nil
}

// LocalDeclsEnd returns the offset, relative to the start of a function body,
// one past the local declarations: the LEB128 group count followed by
// (count, value type) pairs.
func LocalDeclsEnd(body []byte) (int, error) {
	groups, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return 0, errors.ParseFailed("local declaration count", err)
	}
	pos := n
	for i := uint32(0); i < groups; i++ {
		_, cn, err := ReadLEB128u(body, pos)
		if err != nil {
			return 0, errors.ParseFailed("local declaration group", err)
		}
		pos += cn
		if pos >= len(body) {
			return 0, errors.ParseFailed("local declaration group truncated", nil)
		}
		pos++ // value type byte
	}
	return pos, nil
}

// RebuildCode assembles a Code section payload from complete function bodies
// (local declarations plus instructions, no size prefix). Each body gains a
// fresh LEB128 size prefix and the leading count reflects len(bodies).
func RebuildCode(bodies [][]byte) []byte {
	out := AppendLEB128u(nil, uint32(len(bodies)))
	for _, b := range bodies {
		out = AppendLEB128u(out, uint32(len(b)))
		out = append(out, b...)
	}
	return out
}

// CodeBodies returns every function body (without size prefix) of a Code
// section payload as independent copies.
func CodeBodies(code []byte) ([][]byte, error) {
	_, entries, err := CodeEntries(code)
	if err != nil {
		return nil, err
	}
	bodies := make([][]byte, len(entries))
	for i, e := range entries {
		b := make([]byte, e.Size())
		copy(b, code[e.BodyStart:e.BodyEnd])
		bodies[i] = b
	}
	return bodies, nil
}
