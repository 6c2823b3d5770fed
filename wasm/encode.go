package wasm

import (
	"github.com/wippyai/wasm-shield/wasm/internal/binary"
)

// Encode emits the module as WebAssembly binary:
// magic, version, then each section as id || LEB128(size) || payload.
// Custom sections re-gain their name prefix inside the payload. Section order
// is preserved exactly; no validation is performed — callers that need a
// validity check re-parse the result.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()

	w.WriteU32LE(Magic)
	w.WriteU32LE(m.Version)

	for i := range m.Sections {
		writeSection(w, &m.Sections[i])
	}

	return w.Bytes()
}

func writeSection(w *binary.Writer, s *Section) {
	w.Byte(s.ID)
	if s.IsCustom() {
		name := binary.NewWriter()
		name.WriteName(s.Name)
		w.WriteU32(uint32(name.Len() + len(s.Body)))
		w.WriteBytes(name.Bytes())
		w.WriteBytes(s.Body)
		return
	}
	w.WriteU32(uint32(len(s.Body)))
	w.WriteBytes(s.Body)
}
