package tofloat

import (
	"strconv"
	"strings"

	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/value"
	"github.com/xirelogy/go-hymn/internal/vm"
)

const opcode byte = 0x83

func init() {
	runtime.Register(runtime.Spec{
		Name:    "float",
		Opcode:  opcode,
		Arity:   1,
		Handler: runFloat,
	})
}

func runFloat(rt *vm.VM) error {
	v := rt.Pop()
	switch v.Kind {
	case value.KindInteger:
		rt.Push(value.Float(float64(v.I)))
	case value.KindFloat:
		rt.Push(v)
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.S.Text()), 64)
		if err != nil {
			return vm.Errorf(vm.ErrTypeMismatch, "Cannot convert %q to float.", v.S.Text())
		}
		rt.Push(value.Float(f))
	default:
		return vm.Errorf(vm.ErrTypeMismatch, "Cannot convert %s to float.", value.TypeName(v))
	}
	return nil
}
