package obfuscate

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/wasm"
)

// deadCodePrefix is the stack-neutral instruction run inserted at the top of
// every function body, before any original instruction: five nops.
var deadCodePrefix = []byte{wasm.OpNop, wasm.OpNop, wasm.OpNop, wasm.OpNop, wasm.OpNop}

// InsertDeadCode grows every function body by inserting nops immediately
// after the local declarations. The Code section's function count is
// unchanged; each body is re-encoded with its new size prefix.
func InsertDeadCode(m *wasm.Module) (*wasm.Module, error) {
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

		grown := make([]byte, 0, len(body)+len(deadCodePrefix))
		grown = append(grown, body[:declsEnd]...)
		grown = append(grown, deadCodePrefix...)
		grown = append(grown, body[declsEnd:]...)
		bodies[i] = grown
	}

	sec.Body = wasm.RebuildCode(bodies)
	log.Debug("dead code inserted", zap.Int("functions", len(bodies)))
	return out, nil
}
