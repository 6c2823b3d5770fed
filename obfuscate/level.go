package obfuscate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-shield/errors"
	"github.com/wippyai/wasm-shield/wasm"
)

// Level selects which transformations run.
type Level int

const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
)

// ParseLevel maps a user-facing name to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	default:
		return 0, errors.InvalidInput(errors.PhaseObfuscate, fmt.Sprintf("unknown obfuscation level %q", s))
	}
}

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Description summarizes what the level does.
func (l Level) Description() string {
	switch l {
	case LevelLow:
		return "basic obfuscation: local variable renaming"
	case LevelMedium:
		return "medium obfuscation: renaming plus dead code insertion"
	case LevelHigh:
		return "advanced obfuscation: all techniques including splitting and virtualization"
	default:
		return "unknown level"
	}
}

// Transformation is one named Module -> Module pass.
type Transformation struct {
	Name string
	Func func(*wasm.Module) (*wasm.Module, error)
}

// Transformations returns the ordered pass list for a level.
func Transformations(level Level) []Transformation {
	switch level {
	case LevelLow:
		return []Transformation{
			{Name: "rename_locals", Func: RenameLocals},
		}
	case LevelMedium:
		return []Transformation{
			{Name: "rename_locals", Func: RenameLocals},
			{Name: "dead_code", Func: InsertDeadCode},
		}
	case LevelHigh:
		return []Transformation{
			{Name: "rename_locals", Func: RenameLocals},
			{Name: "dead_code", Func: InsertDeadCode},
			{Name: "control_flow", Func: ObfuscateControlFlow},
			{Name: "function_split", Func: SplitLargeFunctions},
			{Name: "virtualization", Func: VirtualizeFunctions},
		}
	default:
		return nil
	}
}

// Apply runs the level's transformations left-to-right, each receiving the
// output of the previous one. The input module is not mutated.
func Apply(m *wasm.Module, level Level) (*wasm.Module, error) {
	passes := Transformations(level)
	if passes == nil {
		return nil, errors.InvalidInput(errors.PhaseObfuscate, fmt.Sprintf("unsupported obfuscation level %d", level))
	}

	log := Logger()
	log.Info("applying obfuscation", zap.String("level", level.String()), zap.Int("passes", len(passes)))

	out := m
	for _, pass := range passes {
		log.Debug("running transformation", zap.String("name", pass.Name))
		next, err := pass.Func(out)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseObfuscate, errors.KindWasmParser, err,
				fmt.Sprintf("transformation %s failed", pass.Name))
		}
		out = next
	}

	log.Info("obfuscation completed")
	return out, nil
}
