package obfuscate

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/vm"
	"github.com/wippyai/wasm-shield/wasm"
)

// Virtualization candidate bounds: bodies in this size band translate to
// reasonably sized bytecode without blowing up the Data section.
const (
	virtualizeMinSize = 50
	virtualizeMaxSize = 200
	virtualizeMaxPer  = 3
)

// VirtualizeFunctions converts up to three candidate functions per module
// into interpreted VM bytecode. A candidate is non-exported, within the size
// band, and has a signature the interpreter stub can honor (at most one
// result, which must be i32). The translated bytecode is encrypted with a
// keystream cipher and stored, together with its metadata record, in a fresh
// Data segment; the function body is replaced by a minimal interpreter stub
// that walks the stored bytes until it sees the Exit opcode.
func VirtualizeFunctions(m *wasm.Module) (*wasm.Module, error) {
	log := Logger()
	out := m.Clone()

	codeSec := out.Section(wasm.SectionCode)
	if codeSec == nil {
		return out, nil
	}

	exported, err := wasm.ExportedFuncs(out)
	if err != nil {
		return nil, err
	}
	importedFuncs, err := wasm.ImportedFuncCount(out)
	if err != nil {
		return nil, err
	}

	bodies, err := wasm.CodeBodies(codeSec.Body)
	if err != nil {
		return nil, err
	}

	translator := vm.NewTranslator()
	virtualized := 0

	for i := range bodies {
		if virtualized >= virtualizeMaxPer {
			break
		}

		size := len(bodies[i])
		if size < virtualizeMinSize || size > virtualizeMaxSize {
			continue
		}

		globalIdx := importedFuncs + uint32(i)
		if _, ok := exported[globalIdx]; ok {
			continue
		}

		sig, err := wasm.FuncSigFor(out, uint32(i))
		if err != nil {
			continue
		}
		if !stubCompatible(sig) {
			log.Debug("skipping virtualization candidate with incompatible signature",
				zap.Uint32("index", globalIdx))
			continue
		}

		stub, err := virtualizeOne(out, translator, bodies[i], globalIdx, sig)
		if err != nil {
			log.Warn("virtualization failed for function",
				zap.Uint32("index", globalIdx), zap.Error(err))
			continue
		}

		bodies[i] = stub
		virtualized++
		log.Debug("virtualized function", zap.Uint32("index", globalIdx))
	}

	if virtualized == 0 {
		log.Info("no suitable functions found for virtualization")
		return out, nil
	}

	if err := ensureMemorySection(out); err != nil {
		return nil, err
	}

	// Inserting the Data and Memory sections may have reallocated the section
	// slice, so the Code section is looked up again rather than via codeSec.
	out.Section(wasm.SectionCode).Body = wasm.RebuildCode(bodies)
	log.Info("virtualization completed", zap.Int("functions", virtualized))
	return out, nil
}

// stubCompatible reports whether the interpreter stub can replace a function
// of this signature while keeping the module valid: at most one result, and
// that result must be i32 (the stub materializes it from linear memory).
func stubCompatible(sig wasm.FuncSig) bool {
	if len(sig.Results) > 1 {
		return false
	}
	if len(sig.Results) == 1 && sig.Results[0] != wasm.ValI32 {
		return false
	}
	return true
}

// virtualizeOne translates, encrypts and stores one function body, returning
// the replacement stub body.
func virtualizeOne(m *wasm.Module, translator *vm.Translator, body []byte, globalIdx uint32, sig wasm.FuncSig) ([]byte, error) {
	declsEnd, err := wasm.LocalDeclsEnd(body)
	if err != nil {
		return nil, err
	}

	bytecode := translator.Translate(body[declsEnd:])

	meta, err := vm.NewMetadata(globalIdx, len(bytecode))
	if err != nil {
		return nil, err
	}

	encrypted, err := vm.EncryptBytecode(bytecode, meta.Key)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, len(encrypted)+vm.MetadataSize)
	blob = append(blob, encrypted...)
	blob = append(blob, meta.Encode()...)

	bytecodeOff, err := storeInDataSection(m, blob)
	if err != nil {
		return nil, err
	}

	return buildVMStub(len(sig.Params), len(sig.Results) == 1, bytecodeOff, bytecodeOff+uint32(len(encrypted)), uint32(len(encrypted))), nil
}

// storeInDataSection appends blob as a new active data segment placed after
// every statically-known existing segment, creating the Data section when
// absent. It returns the memory offset the blob will occupy.
func storeInDataSection(m *wasm.Module, blob []byte) (uint32, error) {
	var base int64
	sec := m.Section(wasm.SectionData)

	if sec != nil {
		segs, err := wasm.ParseDataSegments(sec.Body)
		if err != nil {
			return 0, err
		}
		for _, s := range segs {
			if end := s.End(); end > base {
				base = end
			}
		}
	}

	var existing []byte
	if sec != nil {
		existing = sec.Body
	}
	rebuilt, err := wasm.AppendActiveDataSegment(existing, int32(base), blob)
	if err != nil {
		return 0, err
	}

	if sec != nil {
		sec.Body = rebuilt
	} else {
		m.InsertSection(wasm.Section{ID: wasm.SectionData, Body: rebuilt})
		sec = m.Section(wasm.SectionData)
	}

	// A DataCount section must agree with the segment count.
	if dc := m.Section(wasm.SectionDataCount); dc != nil {
		segs, err := wasm.ParseDataSegments(sec.Body)
		if err != nil {
			return 0, err
		}
		dc.Body = wasm.AppendLEB128u(nil, uint32(len(segs)))
	}

	return uint32(base), nil
}

// ensureMemorySection inserts a one-page memory when the module neither
// defines nor imports one; the interpreter stub uses linear memory as its
// stack.
func ensureMemorySection(m *wasm.Module) error {
	if m.Section(wasm.SectionMemory) != nil {
		return nil
	}
	imported, err := wasm.HasMemoryImport(m)
	if err != nil {
		return err
	}
	if imported {
		return nil
	}

	// One memory with limits {min: 1 page}.
	m.InsertSection(wasm.Section{ID: wasm.SectionMemory, Body: []byte{0x01, 0x00, 0x01}})
	return nil
}

// buildVMStub emits the replacement body: scratch locals, pointer setup, and
// a loop that scans the stored bytecode until it reads the Exit opcode. The
// stub only recognizes Exit; full execution semantics live in the external
// interpreter.
func buildVMStub(numParams int, hasResult bool, bytecodeOff, metadataOff, scanLen uint32) []byte {
	// Scratch locals sit after the parameters: pc, bytecode ptr, metadata ptr
	// and one spare, all i32.
	pc := uint32(numParams)
	bcPtr := pc + 1
	mdPtr := pc + 2

	var b []byte
	b = append(b, 0x01, 0x04, wasm.ValI32) // one local group: 4 x i32

	// Pointer setup.
	b = append(b, wasm.OpI32Const)
	b = wasm.AppendLEB128s(b, int64(bytecodeOff))
	b = append(b, wasm.OpLocalSet)
	b = wasm.AppendLEB128u(b, bcPtr)

	b = append(b, wasm.OpI32Const)
	b = wasm.AppendLEB128s(b, int64(metadataOff))
	b = append(b, wasm.OpLocalSet)
	b = wasm.AppendLEB128u(b, mdPtr)

	b = append(b, wasm.OpI32Const, 0x00)
	b = append(b, wasm.OpLocalSet)
	b = wasm.AppendLEB128u(b, pc)

	// block; loop
	b = append(b, wasm.OpBlock, 0x40)
	b = append(b, wasm.OpLoop, 0x40)

	// if pc >= scanLen: break
	b = append(b, wasm.OpLocalGet)
	b = wasm.AppendLEB128u(b, pc)
	b = append(b, wasm.OpI32Const)
	b = wasm.AppendLEB128s(b, int64(scanLen))
	b = append(b, wasm.OpI32GeU)
	b = append(b, wasm.OpBrIf, 0x01)

	// if bytecode[pc] == Exit: break
	b = append(b, wasm.OpLocalGet)
	b = wasm.AppendLEB128u(b, bcPtr)
	b = append(b, wasm.OpLocalGet)
	b = wasm.AppendLEB128u(b, pc)
	b = append(b, wasm.OpI32Add)
	b = append(b, wasm.OpI32Load8U, 0x00, 0x00)
	b = append(b, wasm.OpI32Const)
	b = wasm.AppendLEB128s(b, 0xFF)
	b = append(b, wasm.OpI32Eq)
	b = append(b, wasm.OpBrIf, 0x01)

	// pc++
	b = append(b, wasm.OpLocalGet)
	b = wasm.AppendLEB128u(b, pc)
	b = append(b, wasm.OpI32Const, 0x01)
	b = append(b, wasm.OpI32Add)
	b = append(b, wasm.OpLocalSet)
	b = wasm.AppendLEB128u(b, pc)

	// continue
	b = append(b, wasm.OpBr, 0x00)
	b = append(b, wasm.OpEnd) // loop
	b = append(b, wasm.OpEnd) // block

	if hasResult {
		b = append(b, wasm.OpI32Const, 0x00)
		b = append(b, wasm.OpI32Load, 0x02, 0x00)
	}

	b = append(b, wasm.OpEnd)
	return b
}
