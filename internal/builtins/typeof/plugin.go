package typeof

import (
	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/value"
	"github.com/xirelogy/go-hymn/internal/vm"
)

const opcode byte = 0x80

func init() {
	runtime.Register(runtime.Spec{
		Name:    "type",
		Opcode:  opcode,
		Arity:   1,
		Handler: runTypeof,
	})
}

func runTypeof(rt *vm.VM) error {
	v := rt.Pop()
	rt.Push(rt.Intern(value.TypeName(v)))
	return nil
}
