package vm

import (
	"github.com/wippyai/wasm-shield/errors"
)

// Interpreter executes VM bytecode host-side, mirroring the semantics the
// in-browser runtime implements. Instruction bytes pass through the opcode
// map before dispatch.
type Interpreter struct {
	bytecode  []byte
	memory    []byte
	stack     []int32
	callStack []int
	opcodeMap [256]byte
	pc        int
	result    *int32
	running   bool
}

// NewInterpreter creates an interpreter over bytecode with memorySize bytes
// of linear memory and an identity opcode map.
func NewInterpreter(bytecode []byte, memorySize int) *Interpreter {
	return &Interpreter{
		bytecode:  bytecode,
		memory:    make([]byte, memorySize),
		stack:     make([]int32, 0, 64),
		callStack: make([]int, 0, 16),
		opcodeMap: IdentityOpcodeMap(),
	}
}

// SetOpcodeMap installs the dispatch permutation the bytecode was emitted
// under.
func (vm *Interpreter) SetOpcodeMap(m [256]byte) {
	vm.opcodeMap = m
}

// Push seeds the operand stack, typically with function arguments.
func (vm *Interpreter) Push(values ...int32) {
	vm.stack = append(vm.stack, values...)
}

func execErr(detail string) error {
	return errors.New(errors.PhaseVirtualize, errors.KindInvalidInput).Detail(detail).Build()
}

// Run executes until Exit, a top-level Return, or the end of the bytecode,
// and returns the program result: the explicit exit value if one was set,
// otherwise the top of the stack.
func (vm *Interpreter) Run() (int32, error) {
	vm.pc = 0
	vm.running = true
	vm.result = nil

	for vm.running && vm.pc < len(vm.bytecode) {
		raw := vm.bytecode[vm.pc]
		vm.pc++

		op, ok := Decode(vm.opcodeMap[raw])
		if !ok {
			// Translation emits junk bytes between real instructions;
			// unknown bytes are skipped.
			continue
		}
		if err := vm.step(op); err != nil {
			return 0, err
		}
	}

	if vm.result != nil {
		return *vm.result, nil
	}
	if n := len(vm.stack); n > 0 {
		return vm.stack[n-1], nil
	}
	return 0, execErr("execution finished with no result")
}

func (vm *Interpreter) step(op Opcode) error {
	switch op {
	case OpPush:
		if vm.pc < len(vm.bytecode) {
			vm.stack = append(vm.stack, int32(vm.bytecode[vm.pc]))
			vm.pc++
		}

	case OpPop:
		if _, err := vm.pop(); err != nil {
			return err
		}

	case OpDup:
		if n := len(vm.stack); n > 0 {
			vm.stack = append(vm.stack, vm.stack[n-1])
		}

	case OpSwap:
		if n := len(vm.stack); n >= 2 {
			vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
		}

	case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpAnd, OpOr, OpXor:
		return vm.binary(op)

	case OpNot:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.stack = append(vm.stack, ^v)

	case OpJump:
		target, ok := vm.target()
		if ok {
			vm.pc = target
		}

	case OpJumpIf:
		cond, err := vm.pop()
		if err != nil {
			return err
		}
		target, ok := vm.target()
		if ok && cond != 0 {
			vm.pc = target
		}

	case OpCall:
		target, ok := vm.target()
		if ok {
			vm.callStack = append(vm.callStack, vm.pc)
			vm.pc = target
		}

	case OpReturn:
		if n := len(vm.callStack); n > 0 {
			vm.pc = vm.callStack[n-1]
			vm.callStack = vm.callStack[:n-1]
			break
		}
		if v, err := vm.pop(); err == nil {
			vm.result = &v
		}
		vm.running = false

	case OpLoad:
		addr, err := vm.pop()
		if err != nil {
			return err
		}
		if int(addr) < 0 || int(addr) >= len(vm.memory) {
			return execErr("memory load out of bounds")
		}
		vm.stack = append(vm.stack, int32(vm.memory[addr]))

	case OpStore:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		addr, err := vm.pop()
		if err != nil {
			return err
		}
		if int(addr) < 0 || int(addr) >= len(vm.memory) {
			return execErr("memory store out of bounds")
		}
		vm.memory[addr] = byte(v)

	case OpNop:
		// no operation

	case OpExit:
		if v, err := vm.pop(); err == nil {
			vm.result = &v
		}
		vm.running = false
	}

	return nil
}

func (vm *Interpreter) binary(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}

	var v int32
	switch op {
	case OpAdd:
		v = a + b
	case OpSub:
		v = a - b
	case OpMul:
		v = a * b
	case OpDiv:
		if b == 0 {
			return execErr("division by zero")
		}
		v = a / b
	case OpRem:
		if b == 0 {
			return execErr("remainder by zero")
		}
		v = a % b
	case OpAnd:
		v = a & b
	case OpOr:
		v = a | b
	case OpXor:
		v = a ^ b
	}

	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *Interpreter) pop() (int32, error) {
	n := len(vm.stack)
	if n == 0 {
		return 0, execErr("stack underflow")
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, nil
}

// target reads a two-byte big-endian operand; ok is false when the bytecode
// is truncated, in which case the operand bytes are skipped.
func (vm *Interpreter) target() (int, bool) {
	if vm.pc+1 >= len(vm.bytecode) {
		vm.pc += 2
		return 0, false
	}
	t := int(vm.bytecode[vm.pc])<<8 | int(vm.bytecode[vm.pc+1])
	vm.pc += 2
	return t, true
}
