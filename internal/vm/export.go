package vm

import (
	"github.com/xirelogy/go-hymn/internal/value"
)

// Pop removes and returns the top of the value stack (or none if empty).
func (vm *VM) Pop() value.Value {
	if len(vm.stack) == 0 {
		return value.Nil()
	}
	return vm.pop()
}

// Push adds a value onto the stack. Builtins push one value after
// popping their arguments, so the depth limit was checked on entry.
func (vm *VM) Push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

// Peek inspects the top of the stack without popping (or none if empty).
func (vm *VM) Peek() value.Value {
	if len(vm.stack) == 0 {
		return value.Nil()
	}
	return vm.peek()
}

// Intern returns a string value from the VM's pool.
func (vm *VM) Intern(text string) value.Value {
	return value.FromString(vm.pool.Intern(text))
}

// Errorf builds an error for builtin handlers. The VM reports it as a
// RuntimeFault at the current instruction with cause as its sentinel.
func Errorf(cause error, format string, args ...interface{}) error {
	return opErrorf(cause, format, args...)
}
