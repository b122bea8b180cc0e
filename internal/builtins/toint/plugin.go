package toint

import (
	"math"
	"strconv"
	"strings"

	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/value"
	"github.com/xirelogy/go-hymn/internal/vm"
)

const opcode byte = 0x82

func init() {
	runtime.Register(runtime.Spec{
		Name:    "int",
		Opcode:  opcode,
		Arity:   1,
		Handler: runInt,
	})
}

func runInt(rt *vm.VM) error {
	v := rt.Pop()
	switch v.Kind {
	case value.KindInteger:
		rt.Push(v)
	case value.KindFloat:
		// float64(MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if math.IsNaN(v.F) || v.F >= math.MaxInt64 || v.F < math.MinInt64 {
			return vm.Errorf(vm.ErrIntegerOverflow, "Float %s does not fit an integer.", value.FormatFloat(v.F))
		}
		rt.Push(value.Integer(int64(v.F)))
	case value.KindBool:
		if v.B {
			rt.Push(value.Integer(1))
		} else {
			rt.Push(value.Integer(0))
		}
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.S.Text()), 10, 64)
		if err != nil {
			return vm.Errorf(vm.ErrTypeMismatch, "Cannot convert %q to integer.", v.S.Text())
		}
		rt.Push(value.Integer(n))
	default:
		return vm.Errorf(vm.ErrTypeMismatch, "Cannot convert %s to integer.", value.TypeName(v))
	}
	return nil
}
