package vm

import (
	"fmt"
	"sync"

	"github.com/xirelogy/go-hymn/internal/bytecode"
)

// BuiltinHandler executes a built-in opcode using the VM stack. It pops
// its arguments and pushes exactly one result. The VM has already
// checked that arity values are available.
type BuiltinHandler func(*VM) error

type builtinEntry struct {
	name    string
	opcode  byte
	arity   int
	handler BuiltinHandler
}

var (
	builtinMu       sync.RWMutex
	builtinRegistry = map[byte]builtinEntry{}
)

// RegisterBuiltin installs a built-in handler for a given opcode.
func RegisterBuiltin(name string, opcode byte, arity int, handler BuiltinHandler) {
	if handler == nil {
		panic("nil builtin handler")
	}
	builtinMu.Lock()
	defer builtinMu.Unlock()
	if _, exists := builtinRegistry[opcode]; exists {
		panic(fmt.Sprintf("builtin opcode 0x%X already registered", opcode))
	}
	bytecode.RegisterBuiltinInfo(name, opcode, arity)
	builtinRegistry[opcode] = builtinEntry{
		name:    name,
		opcode:  opcode,
		arity:   arity,
		handler: handler,
	}
}

func lookupBuiltin(op byte) (builtinEntry, bool) {
	if !bytecode.IsBuiltin(op) {
		return builtinEntry{}, false
	}
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	entry, ok := builtinRegistry[op]
	return entry, ok
}

func (vm *VM) runBuiltin(entry builtinEntry) error {
	if err := vm.require(entry.arity); err != nil {
		return err
	}
	if len(vm.stack)-entry.arity >= vm.maxStack {
		return vm.faultf(ErrStackOverflow, "Stack overflow: limit is %d values.", vm.maxStack)
	}
	if err := entry.handler(vm); err != nil {
		return vm.wrapError(err)
	}
	return nil
}
