package obfuscate

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/wasm"
)

// ObfuscateControlFlow re-parses every function body into its size, local
// declarations and instruction stream and re-emits them. Today that is a
// structural round-trip (size prefixes are re-encoded minimally); it reserves
// the hook point for richer control-flow rewrites without changing the
// module-level protocol. Callers must treat it as a pass that may rewrite
// bodies but preserves observable semantics.
func ObfuscateControlFlow(m *wasm.Module) (*wasm.Module, error) {
	log := Logger()
	out := m.Clone()

	sec := out.Section(wasm.SectionCode)
	if sec == nil {
		return out, nil
	}

	bodies, err := wasm.CodeBodies(sec.Body)
	if err != nil {
		return nil, err
	}
	if len(bodies) == 0 {
		return out, nil
	}

	for i, body := range bodies {
		declsEnd, err := wasm.LocalDeclsEnd(body)
		if err != nil {
			return nil, err
		}

		rebuilt := make([]byte, 0, len(body))
		rebuilt = append(rebuilt, body[:declsEnd]...)
		rebuilt = append(rebuilt, body[declsEnd:]...)
		bodies[i] = rebuilt
	}

	sec.Body = wasm.RebuildCode(bodies)
	log.Debug("control flow pass completed", zap.Int("functions", len(bodies)))
	return out, nil
}
