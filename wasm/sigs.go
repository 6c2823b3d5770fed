package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-shield/errors"
)

// FuncSig is one function type from a Type section: value-type bytes for
// parameters and results.
type FuncSig struct {
	Params  []byte
	Results []byte
}

// AllI32 reports whether every parameter and result is i32.
func (s FuncSig) AllI32() bool {
	for _, p := range s.Params {
		if p != ValI32 {
			return false
		}
	}
	for _, r := range s.Results {
		if r != ValI32 {
			return false
		}
	}
	return true
}

const funcTypeByte = 0x60

// ParseFuncSigs decodes a Type section payload into function signatures.
func ParseFuncSigs(body []byte) ([]FuncSig, error) {
	count, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return nil, errors.ParseFailed("type count", err)
	}

	sigs := make([]FuncSig, 0, count)
	pos := n
	for i := uint32(0); i < count; i++ {
		if pos >= len(body) {
			return nil, errors.ParseFailed(fmt.Sprintf("type %d truncated", i), nil)
		}
		if body[pos] != funcTypeByte {
			return nil, errors.ParseFailed(fmt.Sprintf("type %d is not a function type (0x%02x)", i, body[pos]), nil)
		}
		pos++

		params, np, err := readValTypes(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("type %d params", i), err)
		}
		pos += np

		results, nr, err := readValTypes(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("type %d results", i), err)
		}
		pos += nr

		sigs = append(sigs, FuncSig{Params: params, Results: results})
	}

	return sigs, nil
}

func readValTypes(body []byte, pos int) ([]byte, int, error) {
	count, n, err := ReadLEB128u(body, pos)
	if err != nil {
		return nil, 0, err
	}
	end := pos + n + int(count)
	if end > len(body) {
		return nil, 0, ErrTruncated
	}
	types := make([]byte, count)
	copy(types, body[pos+n:end])
	return types, n + int(count), nil
}

// ParseFuncTypeIndices decodes a Function section payload: the type index of
// every locally-defined function.
func ParseFuncTypeIndices(body []byte) ([]uint32, error) {
	count, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return nil, errors.ParseFailed("function count", err)
	}

	indices := make([]uint32, 0, count)
	pos := n
	for i := uint32(0); i < count; i++ {
		idx, in, err := ReadLEB128u(body, pos)
		if err != nil {
			return nil, errors.ParseFailed(fmt.Sprintf("function %d type index", i), err)
		}
		pos += in
		indices = append(indices, idx)
	}

	return indices, nil
}

// FuncSigFor resolves the signature of local function funcIdx via the
// Function and Type sections. Imported functions are not counted: funcIdx is
// the index within the Function section, matching Code section ordering.
func FuncSigFor(m *Module, funcIdx uint32) (FuncSig, error) {
	funcSec := m.Section(SectionFunction)
	typeSec := m.Section(SectionType)
	if funcSec == nil || typeSec == nil {
		return FuncSig{}, errors.ParseFailed("module lacks Function or Type section", nil)
	}

	indices, err := ParseFuncTypeIndices(funcSec.Body)
	if err != nil {
		return FuncSig{}, err
	}
	if int(funcIdx) >= len(indices) {
		return FuncSig{}, errors.ParseFailed(fmt.Sprintf("function index %d out of range", funcIdx), nil)
	}

	sigs, err := ParseFuncSigs(typeSec.Body)
	if err != nil {
		return FuncSig{}, err
	}
	typeIdx := indices[funcIdx]
	if int(typeIdx) >= len(sigs) {
		return FuncSig{}, errors.ParseFailed(fmt.Sprintf("type index %d out of range", typeIdx), nil)
	}

	return sigs[typeIdx], nil
}
