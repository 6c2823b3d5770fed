package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-shield/errors"
)

// DataSegment is one entry of a Data section. Offset is meaningful only for
// active segments whose offset expression is a plain i32.const; HasOffset is
// false otherwise (passive segments, computed offsets).
type DataSegment struct {
	Init      []byte
	Offset    int32
	Flags     uint32
	HasOffset bool
}

// End returns one past the last memory byte the segment initializes, or 0
// when the offset is not statically known.
func (s DataSegment) End() int64 {
	if !s.HasOffset {
		return 0
	}
	return int64(s.Offset) + int64(len(s.Init))
}

// ParseDataSegments decodes a Data section payload.
func ParseDataSegments(body []byte) ([]DataSegment, error) {
	count, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return nil, errors.ParseFailed("data segment count", err)
	}

	segs := make([]DataSegment, 0, count)
	pos := n
	for i := uint32(0); i < count; i++ {
		flags, fn, err := ReadLEB128u(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("data segment %d flags", i), err)
		}
		pos += fn

		seg := DataSegment{Flags: flags}

		switch flags {
		case 0x00, 0x02:
			if flags == 0x02 {
				n, err := SkipLEB128(body, pos) // memory index
				if err != nil {
					return nil, errors.ParseFailed(fmt.Sprintf("data segment %d memory index", i), err)
				}
				pos += n
			}
			pos, seg.Offset, seg.HasOffset, err = skipConstExpr(body, pos)
			if err != nil {
				return nil, errors.ParseFailed(fmt.Sprintf("data segment %d offset expression", i), err)
			}
		case 0x01:
			// passive segment, no offset expression
		default:
			return nil, errors.ParseFailed(fmt.Sprintf("data segment %d unknown flags %d", i, flags), nil)
		}

		size, sn, err := ReadLEB128u(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("data segment %d size", i), err)
		}
		pos += sn
		if pos+int(size) > len(body) {
			return nil, errors.ParseFailed(fmt.Sprintf("data segment %d overruns section", i), nil)
		}
		seg.Init = body[pos : pos+int(size)]
		pos += int(size)

		segs = append(segs, seg)
	}

	return segs, nil
}

// skipConstExpr walks a constant expression up to its terminating end opcode.
// When the expression is a single i32.const it also reports its value.
func skipConstExpr(body []byte, pos int) (int, int32, bool, error) {
	if pos >= len(body) {
		return 0, 0, false, ErrTruncated
	}

	if body[pos] == OpI32Const {
		v, n, err := ReadLEB128s(body, pos+1)
		if err != nil {
			return 0, 0, false, err
		}
		exprEnd := pos + 1 + n
		if exprEnd >= len(body) || body[exprEnd] != OpEnd {
			return 0, 0, false, ErrTruncated
		}
		return exprEnd + 1, v, true, nil
	}

	// Other constant expressions (global.get, ref.null): scan to end.
	for pos < len(body) {
		if body[pos] == OpEnd {
			return pos + 1, 0, false, nil
		}
		pos++
	}
	return 0, 0, false, ErrTruncated
}

// AppendActiveDataSegment rewrites a Data section payload (which may be
// empty, meaning no section existed) with one more active memory-0 segment
// at the given i32.const offset.
func AppendActiveDataSegment(body []byte, offset int32, init []byte) ([]byte, error) {
	var segsRaw []byte
	var count uint32

	if len(body) > 0 {
		c, n, err := ReadLEB128u(body, 0)
		if err != nil {
			return nil, errors.ParseFailed("data segment count", err)
		}
		count = c
		segsRaw = body[n:]
	}

	out := AppendLEB128u(nil, count+1)
	out = append(out, segsRaw...)
	out = append(out, 0x00) // active segment, memory 0
	out = append(out, OpI32Const)
	out = AppendLEB128s(out, int64(offset))
	out = append(out, OpEnd)
	out = AppendLEB128u(out, uint32(len(init)))
	out = append(out, init...)
	return out, nil
}
