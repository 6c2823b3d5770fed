package obfuscate

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/errors"
	"github.com/wippyai/wasm-shield/wasm"
)

// splitThreshold is the body size above which a function is a split candidate.
const splitThreshold = 100

// SplitLargeFunctions replaces every non-exported function body larger than
// splitThreshold that has at least one safe split point with a trampoline
// plus a chain of sub-functions. The trampoline keeps the original function
// index; sub-functions are appended to the Code section with fresh, higher
// indices, and the Function section gains matching entries reusing the
// trampoline's type index. The Type section is never touched.
func SplitLargeFunctions(m *wasm.Module) (*wasm.Module, error) {
	log := Logger()
	out := m.Clone()

	codeSec := out.Section(wasm.SectionCode)
	funcSec := out.Section(wasm.SectionFunction)
	if codeSec == nil || funcSec == nil {
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
	typeIndices, err := wasm.ParseFuncTypeIndices(funcSec.Body)
	if err != nil {
		return nil, err
	}
	if len(typeIndices) != len(bodies) {
		return nil, errors.ParseFailed("function and code section counts disagree", nil)
	}

	originalCount := len(bodies)
	splitCount := 0

	for i := 0; i < originalCount; i++ {
		// Export entries index the import-inclusive function space.
		globalIdx := importedFuncs + uint32(i)
		if _, ok := exported[globalIdx]; ok {
			continue
		}
		if len(bodies[i]) <= splitThreshold {
			continue
		}

		points := safeSplitPoints(bodies[i])
		if len(points) == 0 {
			continue
		}

		firstSubIdx := importedFuncs + uint32(len(bodies))
		trampoline, subs := splitBody(bodies[i], points, firstSubIdx)

		bodies[i] = trampoline
		bodies = append(bodies, subs...)
		for range subs {
			typeIndices = append(typeIndices, typeIndices[i])
		}

		splitCount++
		log.Debug("split function",
			zap.Uint32("index", globalIdx),
			zap.Int("points", len(points)),
			zap.Int("subfunctions", len(subs)))
	}

	if splitCount == 0 {
		return out, nil
	}

	codeSec.Body = wasm.RebuildCode(bodies)
	funcSec.Body = rebuildFunctionSection(typeIndices)

	log.Info("function splitting completed",
		zap.Int("split", splitCount),
		zap.Int("functions", len(bodies)))
	return out, nil
}

// splitBody cuts one function body at the given points. The trampoline
// (taking the original function's place) just calls the first sub-function.
// Sub-function i chains to i+1 with a call; the last one keeps the original
// tail. Every sub-function re-declares the original local declarations so
// local references inside the moved instructions stay in range.
func splitBody(body []byte, points []int, firstSubIdx uint32) ([]byte, [][]byte) {
	declsEnd, err := wasm.LocalDeclsEnd(body)
	if err != nil {
		// safeSplitPoints already parsed the declarations; this cannot fail
		// for bodies it produced points for.
		return body, nil
	}
	decls := body[:declsEnd]

	subs := make([][]byte, 0, len(points)+1)
	start := declsEnd
	for i, p := range points {
		piece := body[start:p]
		sub := make([]byte, 0, len(decls)+len(piece)+8)
		sub = append(sub, decls...)
		sub = append(sub, piece...)
		sub = append(sub, wasm.OpCall)
		sub = wasm.AppendLEB128u(sub, firstSubIdx+uint32(i)+1)
		sub = append(sub, wasm.OpEnd)
		subs = append(subs, sub)
		start = p
	}

	last := make([]byte, 0, len(decls)+len(body)-start+1)
	last = append(last, decls...)
	last = append(last, body[start:]...)
	if len(last) == len(decls) || last[len(last)-1] != wasm.OpEnd {
		last = append(last, wasm.OpEnd)
	}
	subs = append(subs, last)

	trampoline := []byte{0x00, wasm.OpCall}
	trampoline = wasm.AppendLEB128u(trampoline, firstSubIdx)
	trampoline = append(trampoline, wasm.OpEnd)

	return trampoline, subs
}

// rebuildFunctionSection re-encodes the Function section payload from type
// indices.
func rebuildFunctionSection(typeIndices []uint32) []byte {
	out := wasm.AppendLEB128u(nil, uint32(len(typeIndices)))
	for _, idx := range typeIndices {
		out = wasm.AppendLEB128u(out, idx)
	}
	return out
}
