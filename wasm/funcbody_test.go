package wasm_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-shield/wasm"
)

func TestCodeEntries(t *testing.T) {
	// Two functions: an empty body and one with a single local group.
	code := []byte{
		0x02,       // count
		0x02,       // body 0 size
		0x00, 0x0B, // no locals, end
		0x06,                               // body 1 size
		0x01, 0x02, 0x7F, 0x01, 0x01, 0x0B, // one group of 2 i32 locals, nop, nop, end
	}

	count, entries, err := wasm.CodeEntries(code)
	if err != nil {
		t.Fatalf("CodeEntries: %v", err)
	}
	if count != 2 || len(entries) != 2 {
		t.Fatalf("got count %d, %d entries", count, len(entries))
	}

	if entries[0].Size() != 2 {
		t.Errorf("body 0 size: got %d", entries[0].Size())
	}
	if entries[1].Size() != 6 {
		t.Errorf("body 1 size: got %d", entries[1].Size())
	}
	if entries[1].BodyEnd != len(code) {
		t.Errorf("body 1 end: got %d, want %d", entries[1].BodyEnd, len(code))
	}
}

func TestCodeEntriesOverrun(t *testing.T) {
	code := []byte{0x01, 0x10, 0x00} // body claims 16 bytes, has 1
	if _, _, err := wasm.CodeEntries(code); err == nil {
		t.Error("expected error for body overrun")
	}
}

func TestLocalDeclsEnd(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want int
	}{
		{"no locals", []byte{0x00, 0x0B}, 1},
		{"one group", []byte{0x01, 0x02, 0x7F, 0x0B}, 3},
		{"two groups", []byte{0x02, 0x01, 0x7F, 0x03, 0x7E, 0x0B}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wasm.LocalDeclsEnd(tt.body)
			if err != nil {
				t.Fatalf("LocalDeclsEnd: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRebuildCodeRoundTrip(t *testing.T) {
	original := []byte{
		0x02,
		0x02, 0x00, 0x0B,
		0x03, 0x00, 0x01, 0x0B,
	}

	bodies, err := wasm.CodeBodies(original)
	if err != nil {
		t.Fatalf("CodeBodies: %v", err)
	}
	rebuilt := wasm.RebuildCode(bodies)

	if !bytes.Equal(rebuilt, original) {
		t.Errorf("rebuilt: got %x, want %x", rebuilt, original)
	}
}

func TestParseExports(t *testing.T) {
	body := []byte{
		0x02, // count
		0x04, 'm', 'a', 'i', 'n', 0x00, 0x01, // func export "main" -> 1
		0x03, 'm', 'e', 'm', 0x02, 0x00, // memory export "mem" -> 0
	}

	exports, err := wasm.ParseExports(body)
	if err != nil {
		t.Fatalf("ParseExports: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("got %d exports", len(exports))
	}
	if exports[0].Name != "main" || exports[0].Kind != wasm.ExportKindFunc || exports[0].Index != 1 {
		t.Errorf("export 0: %+v", exports[0])
	}
	if exports[1].Name != "mem" || exports[1].Kind != wasm.ExportKindMemory {
		t.Errorf("export 1: %+v", exports[1])
	}
}

func TestExportedFuncs(t *testing.T) {
	m := mustParse(t, minimalModule)
	m.InsertSection(wasm.Section{ID: wasm.SectionExport, Body: []byte{
		0x01,
		0x01, 'f', 0x00, 0x00,
	}})

	funcs, err := wasm.ExportedFuncs(m)
	if err != nil {
		t.Fatalf("ExportedFuncs: %v", err)
	}
	if _, ok := funcs[0]; !ok || len(funcs) != 1 {
		t.Errorf("got %v, want {0}", funcs)
	}
}

func TestParseFuncSigs(t *testing.T) {
	body := []byte{
		0x02,
		0x60, 0x00, 0x00, // () -> ()
		0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F, // (i32, i32) -> i32
	}

	sigs, err := wasm.ParseFuncSigs(body)
	if err != nil {
		t.Fatalf("ParseFuncSigs: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("got %d sigs", len(sigs))
	}
	if len(sigs[0].Params) != 0 || len(sigs[0].Results) != 0 {
		t.Errorf("sig 0: %+v", sigs[0])
	}
	if len(sigs[1].Params) != 2 || len(sigs[1].Results) != 1 {
		t.Errorf("sig 1: %+v", sigs[1])
	}
	if !sigs[1].AllI32() {
		t.Error("sig 1 should be all-i32")
	}
}

func TestFuncSigFor(t *testing.T) {
	m := mustParse(t, minimalModule)

	sig, err := wasm.FuncSigFor(m, 0)
	if err != nil {
		t.Fatalf("FuncSigFor: %v", err)
	}
	if len(sig.Params) != 0 || len(sig.Results) != 0 {
		t.Errorf("got %+v, want () -> ()", sig)
	}

	if _, err := wasm.FuncSigFor(m, 5); err == nil {
		t.Error("expected error for out-of-range function index")
	}
}
