package tostring

import (
	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/vm"
)

const opcode byte = 0x84

func init() {
	runtime.Register(runtime.Spec{
		Name:    "string",
		Opcode:  opcode,
		Arity:   1,
		Handler: runString,
	})
}

func runString(rt *vm.VM) error {
	v := rt.Pop()
	rt.Push(rt.Intern(v.String()))
	return nil
}
