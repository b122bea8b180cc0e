package vm

import "github.com/xirelogy/go-hymn/internal/value"

// Duplicate returns a new VM with copied globals and configuration that
// shares this VM's intern pool. Execution state is not carried over.
// Values are immutable, so a shallow copy of the globals table suffices.
func (vm *VM) Duplicate() *VM {
	if vm == nil {
		return nil
	}
	dup := New(vm.pool)
	dup.out = vm.out
	dup.maxStack = vm.maxStack
	dup.traceHook = vm.traceHook
	dup.instLimit = vm.instLimit

	dup.globals = make(map[*value.String]value.Value, len(vm.globals))
	for name, val := range vm.globals {
		dup.globals[name] = val
	}
	return dup
}
