package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-shield/errors"
)

// Import description kinds.
const (
	importKindFunc   byte = 0x00
	importKindTable  byte = 0x01
	importKindMemory byte = 0x02
	importKindGlobal byte = 0x03
)

// ImportedFuncCount returns how many functions the module imports. Function
// indices used by call instructions and Export entries count imports first,
// so passes that renumber local functions must offset by this value.
func ImportedFuncCount(m *Module) (uint32, error) {
	sec := m.Section(SectionImport)
	if sec == nil {
		return 0, nil
	}
	body := sec.Body

	count, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return 0, errors.ParseFailed("import count", err)
	}

	var funcs uint32
	pos := n
	for i := uint32(0); i < count; i++ {
		pos, err = skipName(body, pos)
		if err != nil {
			return 0, errors.ParseFailed(fmt.Sprintf("import %d module name", i), err)
		}
		pos, err = skipName(body, pos)
		if err != nil {
			return 0, errors.ParseFailed(fmt.Sprintf("import %d field name", i), err)
		}
		if pos >= len(body) {
			return 0, errors.ParseFailed(fmt.Sprintf("import %d kind truncated", i), nil)
		}
		kind := body[pos]
		pos++

		switch kind {
		case importKindFunc:
			funcs++
			n, err := SkipLEB128(body, pos)
			if err != nil {
				return 0, errors.ParseFailed(fmt.Sprintf("import %d type index", i), err)
			}
			pos += n
		case importKindTable:
			pos++ // reference type
			pos, err = skipLimits(body, pos)
			if err != nil {
				return 0, errors.ParseFailed(fmt.Sprintf("import %d table limits", i), err)
			}
		case importKindMemory:
			pos, err = skipLimits(body, pos)
			if err != nil {
				return 0, errors.ParseFailed(fmt.Sprintf("import %d memory limits", i), err)
			}
		case importKindGlobal:
			pos += 2 // value type, mutability
		default:
			return 0, errors.ParseFailed(fmt.Sprintf("import %d unknown kind 0x%02x", i, kind), nil)
		}
	}

	return funcs, nil
}

// HasMemoryImport reports whether any import is a memory.
func HasMemoryImport(m *Module) (bool, error) {
	sec := m.Section(SectionImport)
	if sec == nil {
		return false, nil
	}
	body := sec.Body

	count, n, err := ReadLEB128u(body, 0)
	if err != nil {
		return false, errors.ParseFailed("import count", err)
	}

	pos := n
	for i := uint32(0); i < count; i++ {
		pos, err = skipName(body, pos)
		if err != nil {
			return false, errors.ParseFailed("import module name", err)
		}
		pos, err = skipName(body, pos)
		if err != nil {
			return false, errors.ParseFailed("import field name", err)
		}
		if pos >= len(body) {
			return false, errors.ParseFailed("import kind truncated", nil)
		}
		kind := body[pos]
		pos++

		switch kind {
		case importKindFunc:
			n, err := SkipLEB128(body, pos)
			if err != nil {
				return false, err
			}
			pos += n
		case importKindTable:
			pos++
			pos, err = skipLimits(body, pos)
			if err != nil {
				return false, err
			}
		case importKindMemory:
			return true, nil
		case importKindGlobal:
			pos += 2
		default:
			return false, errors.ParseFailed(fmt.Sprintf("unknown import kind 0x%02x", kind), nil)
		}
	}

	return false, nil
}

func skipName(body []byte, pos int) (int, error) {
	length, n, err := ReadLEB128u(body, pos)
	if err != nil {
		return 0, err
	}
	end := pos + n + int(length)
	if end > len(body) {
		return 0, ErrTruncated
	}
	return end, nil
}

func skipLimits(body []byte, pos int) (int, error) {
	if pos >= len(body) {
		return 0, ErrTruncated
	}
	flags := body[pos]
	pos++

	n, err := SkipLEB128(body, pos)
	if err != nil {
		return 0, err
	}
	pos += n

	if flags&0x01 != 0 {
		n, err := SkipLEB128(body, pos)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}
