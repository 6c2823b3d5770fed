package wasm_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-shield/wasm"
)

func TestEncodeRoundTripsMinimalModule(t *testing.T) {
	m, err := wasm.ParseModule(minimalModule)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}

	out := m.Encode()
	if !bytes.Equal(out, minimalModule) {
		t.Errorf("encode: got %x, want %x", out, minimalModule)
	}
}

func TestEncodeRoundTripsCustomSection(t *testing.T) {
	data := append([]byte{}, minimalModule...)
	data = append(data, 0x00, 0x07, 0x04, 'n', 'o', 't', 'e', 0xAA, 0xBB)

	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if !bytes.Equal(m.Encode(), data) {
		t.Error("custom section did not round-trip byte-exactly")
	}
}

func TestParseWriteParseIdempotent(t *testing.T) {
	m1, err := wasm.ParseModule(minimalModule)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}

	m2, err := wasm.ParseModule(m1.Encode())
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	if !m1.Equal(m2) {
		t.Error("parse ∘ write ∘ parse is not idempotent")
	}
}

func TestEncodeEmptyModule(t *testing.T) {
	m := &wasm.Module{Version: wasm.Version}
	data := m.Encode()

	if len(data) != 8 {
		t.Errorf("expected 8 bytes for empty module, got %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0x00, 0x61, 0x73, 0x6D}) {
		t.Error("invalid magic number")
	}
	if !bytes.Equal(data[4:8], []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Error("invalid version")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m, err := wasm.ParseModule(minimalModule)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}

	c := m.Clone()
	c.Sections[2].Body[0] = 0x7F

	if m.Sections[2].Body[0] == 0x7F {
		t.Error("Clone shares body storage with original")
	}
	if !m.Equal(mustParse(t, minimalModule)) {
		t.Error("original mutated by clone edit")
	}
}

func TestInsertSectionCanonicalOrder(t *testing.T) {
	m := mustParse(t, minimalModule)

	m.InsertSection(wasm.Section{ID: wasm.SectionMemory, Body: []byte{0x01, 0x00, 0x01}})

	idx := m.SectionIndex(wasm.SectionMemory)
	if idx == -1 {
		t.Fatal("memory section not inserted")
	}
	// Memory (5) belongs after Function (3) and before Code (10).
	if m.SectionIndex(wasm.SectionFunction) > idx || idx > m.SectionIndex(wasm.SectionCode) {
		t.Errorf("memory section at index %d breaks canonical ordering", idx)
	}

	reparsed, err := wasm.ParseModule(m.Encode())
	if err != nil {
		t.Fatalf("re-parse after insert: %v", err)
	}
	if reparsed.Section(wasm.SectionMemory) == nil {
		t.Error("memory section lost in round trip")
	}
}

func mustParse(t *testing.T, data []byte) *wasm.Module {
	t.Helper()
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	return m
}
