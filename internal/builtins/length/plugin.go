package length

import (
	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/value"
	"github.com/xirelogy/go-hymn/internal/vm"
)

const opcode byte = 0x81

func init() {
	runtime.Register(runtime.Spec{
		Name:    "len",
		Opcode:  opcode,
		Arity:   1,
		Handler: runLen,
	})
}

// runLen returns the byte length of a string.
func runLen(rt *vm.VM) error {
	v := rt.Pop()
	if v.Kind != value.KindString {
		return vm.Errorf(vm.ErrTypeMismatch, "len expects a string, got %s.", value.TypeName(v))
	}
	rt.Push(value.Integer(int64(v.S.Len())))
	return nil
}
