package vm

import (
	"math"
	"strings"

	"github.com/xirelogy/go-hymn/internal/bytecode"
	"github.com/xirelogy/go-hymn/internal/value"
)

func binaryOp(op byte, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.OP_EQ:
		return value.Bool(value.Equal(a, b)), nil
	case bytecode.OP_NEQ:
		return value.Bool(!value.Equal(a, b)), nil
	case bytecode.OP_LT, bytecode.OP_LTE, bytecode.OP_GT, bytecode.OP_GTE:
		return compare(op, a, b)
	case bytecode.OP_BIT_AND, bytecode.OP_BIT_OR, bytecode.OP_BIT_XOR, bytecode.OP_SHL, bytecode.OP_SHR:
		return bitwise(op, a, b)
	}

	if !a.IsNumber() || !b.IsNumber() {
		return value.Value{}, opErrorf(ErrTypeMismatch, "Operands must be numbers, got %s and %s.", value.TypeName(a), value.TypeName(b))
	}
	if a.Kind == value.KindInteger && b.Kind == value.KindInteger {
		return integerArith(op, a.I, b.I)
	}
	x, _ := a.AsFloat()
	y, _ := b.AsFloat()
	switch op {
	case bytecode.OP_ADD:
		return value.Float(x + y), nil
	case bytecode.OP_SUB:
		return value.Float(x - y), nil
	case bytecode.OP_MUL:
		return value.Float(x * y), nil
	case bytecode.OP_DIV:
		return value.Float(x / y), nil
	case bytecode.OP_MOD:
		return value.Float(math.Mod(x, y)), nil
	}
	return value.Value{}, opErrorf(ErrInvalidBytecode, "unsupported operator %s", bytecode.Name(op))
}

// integerArith faults on overflow rather than wrapping.
func integerArith(op byte, x, y int64) (value.Value, error) {
	switch op {
	case bytecode.OP_ADD:
		sum := x + y
		if (x > 0 && y > 0 && sum < 0) || (x < 0 && y < 0 && sum >= 0) {
			return value.Value{}, overflow(x, "+", y)
		}
		return value.Integer(sum), nil
	case bytecode.OP_SUB:
		diff := x - y
		if (y < 0 && diff < x) || (y > 0 && diff > x) {
			return value.Value{}, overflow(x, "-", y)
		}
		return value.Integer(diff), nil
	case bytecode.OP_MUL:
		if x == 0 || y == 0 {
			return value.Integer(0), nil
		}
		prod := x * y
		if prod/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return value.Value{}, overflow(x, "*", y)
		}
		return value.Integer(prod), nil
	case bytecode.OP_DIV, bytecode.OP_MOD:
		if y == 0 {
			return value.Value{}, opErrorf(ErrDivisionByZero, "Division by zero.")
		}
		if x == math.MinInt64 && y == -1 {
			if op == bytecode.OP_MOD {
				return value.Integer(0), nil
			}
			return value.Value{}, overflow(x, "/", y)
		}
		if op == bytecode.OP_DIV {
			return value.Integer(x / y), nil
		}
		return value.Integer(x % y), nil
	}
	return value.Value{}, opErrorf(ErrInvalidBytecode, "unsupported operator %s", bytecode.Name(op))
}

func overflow(x int64, sym string, y int64) error {
	return opErrorf(ErrIntegerOverflow, "Integer overflow in %d %s %d.", x, sym, y)
}

func compare(op byte, a, b value.Value) (value.Value, error) {
	var c int
	switch {
	case a.Kind == value.KindInteger && b.Kind == value.KindInteger:
		switch {
		case a.I < b.I:
			c = -1
		case a.I > b.I:
			c = 1
		}
	case a.IsNumber() && b.IsNumber():
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		if math.IsNaN(x) || math.IsNaN(y) {
			return value.Bool(false), nil
		}
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	case a.Kind == value.KindString && b.Kind == value.KindString:
		c = strings.Compare(a.S.Text(), b.S.Text())
	default:
		return value.Value{}, opErrorf(ErrTypeMismatch, "Cannot compare %s with %s.", value.TypeName(a), value.TypeName(b))
	}
	switch op {
	case bytecode.OP_LT:
		return value.Bool(c < 0), nil
	case bytecode.OP_LTE:
		return value.Bool(c <= 0), nil
	case bytecode.OP_GT:
		return value.Bool(c > 0), nil
	default:
		return value.Bool(c >= 0), nil
	}
}

func bitwise(op byte, a, b value.Value) (value.Value, error) {
	if a.Kind != value.KindInteger || b.Kind != value.KindInteger {
		return value.Value{}, opErrorf(ErrTypeMismatch, "Bitwise operands must be integers, got %s and %s.", value.TypeName(a), value.TypeName(b))
	}
	x, y := a.I, b.I
	switch op {
	case bytecode.OP_BIT_AND:
		return value.Integer(x & y), nil
	case bytecode.OP_BIT_OR:
		return value.Integer(x | y), nil
	case bytecode.OP_BIT_XOR:
		return value.Integer(x ^ y), nil
	}
	if y < 0 {
		return value.Value{}, opErrorf(ErrNegativeShift, "Negative shift count %d.", y)
	}
	if op == bytecode.OP_SHL {
		return value.Integer(x << uint64(y)), nil
	}
	return value.Integer(x >> uint64(y)), nil
}

func unaryOp(op byte, v value.Value) (value.Value, error) {
	switch op {
	case bytecode.OP_NOT:
		return value.Bool(!value.Truthy(v)), nil
	case bytecode.OP_BIT_NOT:
		if v.Kind != value.KindInteger {
			return value.Value{}, opErrorf(ErrTypeMismatch, "Bitwise operand must be an integer, got %s.", value.TypeName(v))
		}
		return value.Integer(^v.I), nil
	}
	switch v.Kind {
	case value.KindInteger:
		if v.I == math.MinInt64 {
			return value.Value{}, opErrorf(ErrIntegerOverflow, "Integer overflow negating %d.", v.I)
		}
		return value.Integer(-v.I), nil
	case value.KindFloat:
		return value.Float(-v.F), nil
	}
	return value.Value{}, opErrorf(ErrTypeMismatch, "Operand must be a number, got %s.", value.TypeName(v))
}
