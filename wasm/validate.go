package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasm-shield/errors"
)

// ValidateHeader performs the cheap structural check: magic bytes and version.
func ValidateHeader(data []byte) error {
	if len(data) < 8 {
		return errors.InvalidInput(errors.PhaseParse, "data too short to be a wasm module")
	}
	if data[0] != 0x00 || data[1] != 0x61 || data[2] != 0x73 || data[3] != 0x6D {
		return errors.InvalidInput(errors.PhaseParse, "invalid wasm magic number")
	}
	if data[4] != 0x01 || data[5] != 0x00 || data[6] != 0x00 || data[7] != 0x00 {
		return errors.InvalidInput(errors.PhaseParse, "unsupported wasm version")
	}
	return nil
}

// ValidateRuntime compiles the module with a wazero interpreter runtime,
// exercising full WebAssembly validation. It is substantially more expensive
// than ParseModule and is intended for verification after obfuscation, not for
// the hot path.
func ValidateRuntime(ctx context.Context, data []byte) error {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return errors.Wrap(errors.PhaseParse, errors.KindWasmParser, err, "module failed runtime validation")
	}
	return compiled.Close(ctx)
}
