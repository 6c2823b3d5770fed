package vm

import (
	cryptorand "crypto/rand"
	"encoding/binary"

	"github.com/wippyai/wasm-shield/errors"
)

// MetadataSize is the encoded size of a metadata record.
const MetadataSize = 4 + 4 + 16 + 16

// Metadata describes one virtualized function: the function index it
// replaced, the plaintext bytecode length, the 16-byte bytecode key and a
// 16-byte opcode-map sample. Layout is little-endian in that order.
type Metadata struct {
	FuncIndex   uint32
	BytecodeLen uint32
	Key         [16]byte
	OpcodeMap   [16]byte
}

// NewMetadata builds a record for funcIdx with fresh random key and opcode
// map bytes.
func NewMetadata(funcIdx uint32, bytecodeLen int) (*Metadata, error) {
	m := &Metadata{
		FuncIndex:   funcIdx,
		BytecodeLen: uint32(bytecodeLen),
	}
	if _, err := cryptorand.Read(m.Key[:]); err != nil {
		return nil, errors.Wrap(errors.PhaseVirtualize, errors.KindEncryption, err, "generating bytecode key")
	}
	if _, err := cryptorand.Read(m.OpcodeMap[:]); err != nil {
		return nil, errors.Wrap(errors.PhaseVirtualize, errors.KindEncryption, err, "generating opcode map bytes")
	}
	return m, nil
}

// Encode serializes the record.
func (m *Metadata) Encode() []byte {
	out := make([]byte, MetadataSize)
	binary.LittleEndian.PutUint32(out[0:4], m.FuncIndex)
	binary.LittleEndian.PutUint32(out[4:8], m.BytecodeLen)
	copy(out[8:24], m.Key[:])
	copy(out[24:40], m.OpcodeMap[:])
	return out
}

// ParseMetadata decodes a record produced by Encode.
func ParseMetadata(data []byte) (*Metadata, error) {
	if len(data) < MetadataSize {
		return nil, errors.InvalidInput(errors.PhaseVirtualize, "metadata record too short")
	}
	m := &Metadata{
		FuncIndex:   binary.LittleEndian.Uint32(data[0:4]),
		BytecodeLen: binary.LittleEndian.Uint32(data[4:8]),
	}
	copy(m.Key[:], data[8:24])
	copy(m.OpcodeMap[:], data[24:40])
	return m, nil
}
