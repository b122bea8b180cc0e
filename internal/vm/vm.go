package vm

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-hymn/internal/bytecode"
	"github.com/xirelogy/go-hymn/internal/value"
)

// VM is a stack-based bytecode interpreter. Globals persist across
// Execute calls; the value stack is reset at the start of each one.
type VM struct {
	pool      *value.Pool
	stack     []value.Value
	globals   map[*value.String]value.Value
	chunk     *bytecode.Chunk
	lastOp    int
	out       io.Writer
	maxStack  int
	traceHook TraceHook
	instLimit int
	instCount int
}

const defaultMaxStack = 1024

func log() commonlog.Logger {
	return commonlog.GetLogger("hymn.vm")
}

// New constructs an empty VM interning strings into pool. A nil pool
// gets a private one.
func New(pool *value.Pool) *VM {
	if pool == nil {
		pool = value.NewPool()
	}
	return &VM{
		pool:     pool,
		stack:    make([]value.Value, 0, 256),
		globals:  make(map[*value.String]value.Value),
		lastOp:   -1,
		out:      os.Stdout,
		maxStack: defaultMaxStack,
	}
}

// Pool returns the intern pool shared with the compiler.
func (vm *VM) Pool() *value.Pool {
	return vm.pool
}

// SetOutput redirects the print statement.
func (vm *VM) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	vm.out = w
}

// SetMaxStack caps the value stack depth (<= 0 restores the default).
func (vm *VM) SetMaxStack(limit int) {
	if limit <= 0 {
		limit = defaultMaxStack
	}
	vm.maxStack = limit
}

// SetTraceHook registers a callback for instruction-level tracing.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// SetInstructionLimit caps the number of instructions executed per Execute (0 for unlimited).
func (vm *VM) SetInstructionLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	vm.instLimit = limit
}

// ResetState clears transient execution state. Globals are kept.
func (vm *VM) ResetState() {
	vm.stack = vm.stack[:0]
	vm.chunk = nil
	vm.lastOp = -1
	vm.instCount = 0
}

// DefineGlobal binds a value into the global environment.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	vm.globals[vm.pool.Intern(name)] = v
}

// Global returns the value bound to name.
func (vm *VM) Global(name string) (value.Value, bool) {
	key, ok := vm.pool.Lookup(name)
	if !ok {
		return value.Value{}, false
	}
	v, ok := vm.globals[key]
	return v, ok
}

// GlobalNames returns the bound global names in sorted order.
func (vm *VM) GlobalNames() []string {
	names := make([]string, 0, len(vm.globals))
	for key := range vm.globals {
		names = append(names, key.Text())
	}
	sort.Strings(names)
	return names
}

// Stack returns a copy of the value stack, bottom first.
func (vm *VM) Stack() []value.Value {
	out := make([]value.Value, len(vm.stack))
	copy(out, vm.stack)
	return out
}

// Execute runs chunk until OP_END or a fault. The stack left behind is
// the program's result.
func (vm *VM) Execute(chunk *bytecode.Chunk) error {
	vm.ResetState()
	if chunk == nil {
		return vm.faultf(ErrInvalidBytecode, "no chunk to execute")
	}
	vm.chunk = chunk
	code := chunk.Code

	for ip := 0; ; {
		if ip >= len(code) {
			vm.lastOp = ip
			return vm.faultf(ErrInvalidBytecode, "missing end of program")
		}
		vm.lastOp = ip
		op := code[ip]
		next := ip + bytecode.Width(op)
		if next > len(code) {
			return vm.faultf(ErrInvalidBytecode, "truncated %s", bytecode.Name(op))
		}
		vm.instCount++
		if vm.instLimit > 0 && vm.instCount > vm.instLimit {
			return vm.faultf(ErrInstructionLimit, "instruction limit exceeded")
		}
		vm.trace(op)

		if entry, ok := lookupBuiltin(op); ok {
			if err := vm.runBuiltin(entry); err != nil {
				return err
			}
			ip = next
			continue
		}

		switch op {
		case bytecode.OP_PUSH:
			v, err := vm.constant(operand(code, ip))
			if err != nil {
				return err
			}
			if err := vm.push(v); err != nil {
				return err
			}
		case bytecode.OP_NIL:
			if err := vm.push(value.Nil()); err != nil {
				return err
			}
		case bytecode.OP_TRUE:
			if err := vm.push(value.Bool(true)); err != nil {
				return err
			}
		case bytecode.OP_FALSE:
			if err := vm.push(value.Bool(false)); err != nil {
				return err
			}
		case bytecode.OP_POP:
			if err := vm.require(1); err != nil {
				return err
			}
			vm.pop()
		case bytecode.OP_DUP:
			if err := vm.require(1); err != nil {
				return err
			}
			if err := vm.push(vm.peek()); err != nil {
				return err
			}
		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_MOD,
			bytecode.OP_EQ, bytecode.OP_NEQ, bytecode.OP_LT, bytecode.OP_LTE, bytecode.OP_GT, bytecode.OP_GTE,
			bytecode.OP_BIT_AND, bytecode.OP_BIT_OR, bytecode.OP_BIT_XOR, bytecode.OP_SHL, bytecode.OP_SHR:
			if err := vm.require(2); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			res, err := binaryOp(op, a, b)
			if err != nil {
				return vm.wrapError(err)
			}
			vm.stack = append(vm.stack, res)
		case bytecode.OP_NEG, bytecode.OP_NOT, bytecode.OP_BIT_NOT:
			if err := vm.require(1); err != nil {
				return err
			}
			res, err := unaryOp(op, vm.pop())
			if err != nil {
				return vm.wrapError(err)
			}
			vm.stack = append(vm.stack, res)
		case bytecode.OP_GET_GLOBAL:
			name, err := vm.globalName(operand(code, ip))
			if err != nil {
				return err
			}
			v, ok := vm.globals[name]
			if !ok {
				return vm.faultf(ErrUndefinedGlobal, "Undefined variable '%s'.", name.Text())
			}
			if err := vm.push(v); err != nil {
				return err
			}
		case bytecode.OP_INSERT:
			if err := vm.require(1); err != nil {
				return err
			}
			name, err := vm.globalName(operand(code, ip))
			if err != nil {
				return err
			}
			vm.globals[name] = vm.pop()
		case bytecode.OP_JUMP:
			target, err := vm.jumpTarget(operand(code, ip))
			if err != nil {
				return err
			}
			ip = target
			continue
		case bytecode.OP_JUMP_IF_FALSE, bytecode.OP_JUMP_IF_TRUE:
			if err := vm.require(1); err != nil {
				return err
			}
			target, err := vm.jumpTarget(operand(code, ip))
			if err != nil {
				return err
			}
			if value.Truthy(vm.peek()) == (op == bytecode.OP_JUMP_IF_TRUE) {
				ip = target
				continue
			}
		case bytecode.OP_PRINT:
			if err := vm.require(1); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(vm.out, vm.pop().String()); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_END:
			log().Debugf("executed %d instructions, stack depth %d", vm.instCount, len(vm.stack))
			return nil
		default:
			return vm.faultf(ErrInvalidBytecode, "unknown opcode 0x%02X", op)
		}
		ip = next
	}
}

func operand(code []byte, ip int) int {
	return int(code[ip+1])<<8 | int(code[ip+2])
}

func (vm *VM) constant(idx int) (value.Value, error) {
	if idx >= len(vm.chunk.Consts) {
		return value.Value{}, vm.faultf(ErrInvalidBytecode, "constant index %d out of range", idx)
	}
	return vm.chunk.Consts[idx], nil
}

func (vm *VM) globalName(idx int) (*value.String, error) {
	v, err := vm.constant(idx)
	if err != nil {
		return nil, err
	}
	if v.Kind != value.KindString {
		return nil, vm.faultf(ErrInvalidBytecode, "global name must be a string, got %s", value.TypeName(v))
	}
	return v.S, nil
}

func (vm *VM) jumpTarget(target int) (int, error) {
	if target >= len(vm.chunk.Code) {
		return 0, vm.faultf(ErrInvalidBytecode, "jump target %04d out of range", target)
	}
	return target, nil
}

func (vm *VM) require(n int) error {
	if len(vm.stack) < n {
		return vm.faultf(ErrStackUnderflow, "Stack underflow: need %d value(s), have %d.", n, len(vm.stack))
	}
	return nil
}

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) >= vm.maxStack {
		return vm.faultf(ErrStackOverflow, "Stack overflow: limit is %d values.", vm.maxStack)
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() value.Value {
	top := len(vm.stack) - 1
	v := vm.stack[top]
	vm.stack = vm.stack[:top]
	return v
}

func (vm *VM) peek() value.Value {
	return vm.stack[len(vm.stack)-1]
}
