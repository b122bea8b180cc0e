// Package runtime is the registry of builtin functions. Plugins register
// from init; the compiler resolves calls by name and the VM dispatches
// by opcode.
package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xirelogy/go-hymn/internal/bytecode"
	"github.com/xirelogy/go-hymn/internal/lexer"
	"github.com/xirelogy/go-hymn/internal/token"
	"github.com/xirelogy/go-hymn/internal/vm"
)

// Spec describes a built-in function opcode and handler.
type Spec struct {
	Name    string
	Opcode  byte
	Arity   int
	Handler vm.BuiltinHandler
}

var (
	mu       sync.RWMutex
	byName   = map[string]Spec{}
	byOpcode = map[byte]Spec{}
)

// Register installs a builtin in both tables and in the VM. Invalid or
// conflicting registrations panic.
func Register(spec Spec) {
	if err := validate(spec); err != nil {
		panic(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if prev, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered at 0x%02X", spec.Name, prev.Opcode))
	}
	if prev, exists := byOpcode[spec.Opcode]; exists {
		panic(fmt.Sprintf("builtin opcode 0x%02X already taken by %s", spec.Opcode, prev.Name))
	}
	byName[spec.Name] = spec
	byOpcode[spec.Opcode] = spec
	vm.RegisterBuiltin(spec.Name, spec.Opcode, spec.Arity, spec.Handler)
}

func validate(spec Spec) error {
	switch {
	case spec.Handler == nil:
		return fmt.Errorf("builtin %s has nil handler", spec.Name)
	case !bytecode.IsBuiltin(spec.Opcode):
		return fmt.Errorf("builtin %s: opcode 0x%02X outside 0x%02X..0x%02X", spec.Name, spec.Opcode, bytecode.BuiltinFirst, bytecode.BuiltinLast)
	case spec.Arity < 0:
		return fmt.Errorf("builtin %s: negative arity %d", spec.Name, spec.Arity)
	case !isIdent(spec.Name):
		return fmt.Errorf("builtin name %q is not an identifier", spec.Name)
	}
	return nil
}

// isIdent rejects names the compiler could never resolve, keywords included.
func isIdent(name string) bool {
	lex := lexer.New(name)
	tok := lex.NextToken()
	return tok.Type == token.Ident && tok.Literal == name && lex.NextToken().Type == token.EOF
}

// LookupByName finds a builtin by its script-visible name.
func LookupByName(name string) (Spec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	spec, ok := byName[name]
	return spec, ok
}

// LookupByOpcode finds a builtin by opcode.
func LookupByOpcode(op byte) (Spec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	spec, ok := byOpcode[op]
	return spec, ok
}

// All returns the registered builtins ordered by opcode.
func All() []Spec {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Spec, 0, len(byOpcode))
	for _, spec := range byOpcode {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opcode < out[j].Opcode })
	return out
}
