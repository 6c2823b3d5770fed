package wasm

import (
	"bytes"
	goerrors "errors"
	"fmt"
	"io"

	"github.com/wippyai/wasm-shield/errors"
	"github.com/wippyai/wasm-shield/wasm/internal/binary"
)

// ParseModule splits a WebAssembly binary into its raw sections.
//
// Only the structural properties downstream passes rely on are verified: the
// magic/version header, section id validity, and that every section payload
// fits inside the buffer. Instruction streams and type signatures inside the
// payloads are not decoded here.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(bytes.NewReader(data))

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseParse, "data too short for wasm header")
	}
	if magic != Magic {
		return nil, errors.InvalidInput(errors.PhaseParse, "invalid wasm magic number")
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseParse, "data too short for wasm header")
	}
	if version != Version {
		return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("unsupported wasm version %d", version))
	}

	m := &Module{Version: version}

	for {
		id, err := r.ReadByte()
		if err != nil {
			if goerrors.Is(err, io.EOF) {
				break
			}
			return nil, errors.ParseFailed("section header", err)
		}

		if id > maxSectionID {
			return nil, errors.ParseFailed(fmt.Sprintf("unknown section id 0x%02x", id), nil)
		}

		size, err := r.ReadU32()
		if err != nil {
			return nil, errors.ParseFailed("section size", r.WrapError("section size", err))
		}

		body, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, errors.ParseFailed("section body overruns buffer", r.WrapError("section body", err))
		}

		sec := Section{ID: id, Body: body}
		if id == SectionCustom {
			sr := binary.NewReader(bytes.NewReader(body))
			name, err := sr.ReadName()
			if err != nil {
				return nil, errors.ParseFailed("custom section name", err)
			}
			rest, err := sr.ReadRemaining()
			if err != nil {
				return nil, errors.ParseFailed("custom section payload", err)
			}
			sec.Name = name
			sec.Body = rest
		}

		m.Sections = append(m.Sections, sec)
	}

	return m, nil
}
