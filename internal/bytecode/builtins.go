package bytecode

import (
	"fmt"
	"sync"
)

// BuiltinInfo describes a registered builtin opcode.
type BuiltinInfo struct {
	Name   string
	Opcode byte
	Arity  int
}

var (
	builtinMu   sync.RWMutex
	builtinInfo = map[byte]BuiltinInfo{}
)

// RegisterBuiltinInfo records builtin opcode metadata for validation and
// disassembly. Registering an opcode outside the builtin range or twice
// panics; registration happens from init functions.
func RegisterBuiltinInfo(name string, opcode byte, arity int) {
	if !IsBuiltin(opcode) {
		panic(fmt.Sprintf("opcode 0x%02X outside builtin range", opcode))
	}
	if name == "" {
		name = fmt.Sprintf("0x%02X", opcode)
	}
	builtinMu.Lock()
	defer builtinMu.Unlock()
	if _, exists := builtinInfo[opcode]; exists {
		panic(fmt.Sprintf("builtin opcode 0x%X already registered", opcode))
	}
	builtinInfo[opcode] = BuiltinInfo{Name: name, Opcode: opcode, Arity: arity}
}

// LookupBuiltinInfo returns builtin metadata if registered.
func LookupBuiltinInfo(opcode byte) (BuiltinInfo, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	info, ok := builtinInfo[opcode]
	return info, ok
}
