// Package vm implements the custom stack-machine bytecode used by function
// virtualization: the opcode set, the Wasm-to-VM instruction translator, the
// keystream cipher protecting stored bytecode, the shuffled opcode dispatch
// map, and a host-side interpreter mirroring the in-browser one.
//
// Operand widths follow each opcode: Push carries one immediate byte,
// Jump/JumpIf/Call carry a two-byte big-endian target. A program always
// terminates with Exit, and Exit keeps its byte value under every generated
// opcode map so interpreters can recognize termination before dispatch.
package vm
