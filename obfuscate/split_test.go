package obfuscate_test

import (
	"context"
	"testing"

	"github.com/wippyai/wasm-shield/obfuscate"
	"github.com/wippyai/wasm-shield/wasm"
)

func TestSplitLargeFunctionsGrowsFunctionCount(t *testing.T) {
	m := buildModule(t, [][]byte{nopBody(120)}, false)

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	fs, cs := funcCount(t, out)
	if fs != cs {
		t.Errorf("function/code counts disagree: %d vs %d", fs, cs)
	}
	if cs <= 1 {
		t.Errorf("function count did not grow: %d", cs)
	}

	reparse(t, out)
}

func TestSplitTrampolineCallsFirstSub(t *testing.T) {
	m := buildModule(t, [][]byte{nopBody(120)}, false)

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	bodies, err := wasm.CodeBodies(out.Section(wasm.SectionCode).Body)
	if err != nil {
		t.Fatal(err)
	}

	// Original index 0 is now the trampoline: no locals, call 1, end.
	want := []byte{0x00, wasm.OpCall, 0x01, wasm.OpEnd}
	if string(bodies[0]) != string(want) {
		t.Errorf("trampoline: got %x, want %x", bodies[0], want)
	}

	// Intermediate subs chain with a call; the last ends plainly.
	for i := 1; i < len(bodies)-1; i++ {
		b := bodies[i]
		if b[len(b)-1] != wasm.OpEnd {
			t.Errorf("sub %d does not end with end", i)
		}
		// call <idx>; end tail
		if b[len(b)-3] != wasm.OpCall {
			t.Errorf("sub %d missing chain call: %x", i, b)
		}
	}
	last := bodies[len(bodies)-1]
	if last[len(last)-1] != wasm.OpEnd {
		t.Error("last sub does not end with end")
	}
}

func TestSplitSkipsExportedFunctions(t *testing.T) {
	m := buildModule(t, [][]byte{nopBody(120)}, true) // function 0 exported

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	_, cs := funcCount(t, out)
	if cs != 1 {
		t.Errorf("exported function was split: %d functions", cs)
	}
}

func TestSplitSkipsSmallFunctions(t *testing.T) {
	m := buildModule(t, [][]byte{nopBody(20)}, false)

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	_, cs := funcCount(t, out)
	if cs != 1 {
		t.Errorf("small function was split: %d functions", cs)
	}
}

func TestSplitPreservesTypeSection(t *testing.T) {
	m := buildModule(t, [][]byte{nopBody(120)}, false)
	origType := append([]byte{}, m.Section(wasm.SectionType).Body...)

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	if string(out.Section(wasm.SectionType).Body) != string(origType) {
		t.Error("type section content changed")
	}
}

func TestSplitSubFunctionsReuseTrampolineType(t *testing.T) {
	m := buildModule(t, [][]byte{nopBody(120)}, false)

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	indices, err := wasm.ParseFuncTypeIndices(out.Section(wasm.SectionFunction).Body)
	if err != nil {
		t.Fatal(err)
	}
	for i, idx := range indices {
		if idx != 0 {
			t.Errorf("function %d: type index %d, want 0", i, idx)
		}
	}
}

func TestSplitModuleValidatesWithRuntime(t *testing.T) {
	// A nullary void function split into a trampoline chain must survive full
	// runtime validation, not just re-parsing.
	m := buildModule(t, [][]byte{nopBody(512)}, false)

	out, err := obfuscate.SplitLargeFunctions(m)
	if err != nil {
		t.Fatalf("SplitLargeFunctions: %v", err)
	}

	_, cs := funcCount(t, out)
	if cs <= 1 {
		t.Fatalf("512-byte function not split: %d functions", cs)
	}

	if err := wasm.ValidateRuntime(context.Background(), out.Encode()); err != nil {
		t.Errorf("split module failed runtime validation: %v", err)
	}
}

func TestHighLevelScenarioLargeFunction(t *testing.T) {
	// A 512-byte non-exported body plus an exported entry function: High
	// obfuscation must grow the function count and keep exports intact.
	m := buildModule(t, [][]byte{nopBody(5), nopBody(512)}, true)

	_, before := funcCount(t, m)
	out, err := obfuscate.Apply(m, obfuscate.LevelHigh)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	p := reparse(t, out)
	fs, cs := funcCount(t, p)
	if cs <= before {
		t.Errorf("function count did not grow: %d -> %d", before, cs)
	}
	if fs != cs {
		t.Errorf("function/code counts disagree: %d vs %d", fs, cs)
	}

	exports, err := wasm.ParseExports(p.Section(wasm.SectionExport).Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(exports) != 1 || exports[0].Name != "main" {
		t.Errorf("exports changed: %+v", exports)
	}
}
