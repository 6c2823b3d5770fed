package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-shield/errors"
)

// Export is one entry of an Export section.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// ParseExports decodes an Export section payload.
func ParseExports(body []byte) ([]Export, error) {
	count, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return nil, errors.ParseFailed("export count", err)
	}

	exports := make([]Export, 0, count)
	pos := n
	for i := uint32(0); i < count; i++ {
		nameLen, nn, err := ReadLEB128u(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("export %d name length", i), err)
		}
		pos += nn
		if pos+int(nameLen) > len(body) {
			return nil, errors.ParseFailed(fmt.Sprintf("export %d name truncated", i), nil)
		}
		name := string(body[pos : pos+int(nameLen)])
		pos += int(nameLen)

		if pos >= len(body) {
			return nil, errors.ParseFailed(fmt.Sprintf("export %d kind truncated", i), nil)
		}
		kind := body[pos]
		pos++

		idx, in, err := ReadLEB128u(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("export %d index", i), err)
		}
		pos += in

		exports = append(exports, Export{Name: name, Kind: kind, Index: idx})
	}

	return exports, nil
}

// ExportedFuncs returns the set of function indices named by Export section
// entries of kind function. Splitting or virtualizing these would change
// which body an export name resolves to.
func ExportedFuncs(m *Module) (map[uint32]struct{}, error) {
	out := make(map[uint32]struct{})
	sec := m.Section(SectionExport)
	if sec == nil {
		return out, nil
	}
	exports, err := ParseExports(sec.Body)
	if err != nil {
		return nil, err
	}
	for _, e := range exports {
		if e.Kind == ExportKindFunc {
			out[e.Index] = struct{}{}
		}
	}
	return out, nil
}
