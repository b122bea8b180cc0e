package vm

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/xirelogy/go-hymn/internal/bytecode"
	"github.com/xirelogy/go-hymn/internal/value"
)

type chunkBuilder struct {
	chunk *bytecode.Chunk
	row   int
}

func newChunk() *chunkBuilder {
	return &chunkBuilder{chunk: &bytecode.Chunk{}, row: 1}
}

func (b *chunkBuilder) op(op byte, operands ...int) *chunkBuilder {
	b.chunk.Lines = append(b.chunk.Lines, bytecode.LineInfo{Offset: len(b.chunk.Code), Row: b.row, Column: len(b.chunk.Code) + 1})
	b.chunk.Code = append(b.chunk.Code, op)
	for _, o := range operands {
		b.chunk.Code = append(b.chunk.Code, byte(o>>8), byte(o))
	}
	return b
}

func (b *chunkBuilder) push(v value.Value) *chunkBuilder {
	b.chunk.Consts = append(b.chunk.Consts, v)
	return b.op(bytecode.OP_PUSH, len(b.chunk.Consts)-1)
}

func (b *chunkBuilder) konst(v value.Value) int {
	b.chunk.Consts = append(b.chunk.Consts, v)
	return len(b.chunk.Consts) - 1
}

func (b *chunkBuilder) end() *bytecode.Chunk {
	b.op(bytecode.OP_END)
	return b.chunk
}

func mustTop(t *testing.T, m *VM) value.Value {
	t.Helper()
	stack := m.Stack()
	if len(stack) == 0 {
		t.Fatalf("expected a value on the stack")
	}
	return stack[len(stack)-1]
}

func TestExecuteAddIntegers(t *testing.T) {
	m := New(nil)
	chunk := newChunk().push(value.Integer(40)).push(value.Integer(2)).op(bytecode.OP_ADD).end()
	if err := m.Execute(chunk); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if top := mustTop(t, m); top.Kind != value.KindInteger || top.I != 42 {
		t.Fatalf("expected 42, got %v", top)
	}
}

func TestExecuteAddPromotesToFloat(t *testing.T) {
	m := New(nil)
	chunk := newChunk().push(value.Integer(1)).push(value.Float(0.5)).op(bytecode.OP_ADD).end()
	if err := m.Execute(chunk); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if top := mustTop(t, m); top.Kind != value.KindFloat || top.F != 1.5 {
		t.Fatalf("expected 1.5, got %v", top)
	}
}

func TestPopEmptyStackFaults(t *testing.T) {
	m := New(nil)
	chunk := newChunk().op(bytecode.OP_POP).end()
	err := m.Execute(chunk)
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected stack underflow, got %v", err)
	}
	var fault *RuntimeFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected RuntimeFault, got %T", err)
	}
	if fault.Row != 1 || fault.Column != 1 || fault.IP != 0 || fault.Op != bytecode.OP_POP {
		t.Fatalf("unexpected fault position %+v", fault)
	}
}

func TestAddUnderflowFaults(t *testing.T) {
	m := New(nil)
	chunk := newChunk().push(value.Integer(1)).op(bytecode.OP_ADD).end()
	if err := m.Execute(chunk); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected stack underflow, got %v", err)
	}
}

func TestInsertAndGetGlobalAcrossExecutions(t *testing.T) {
	m := New(nil)
	x := value.FromString(m.Pool().Intern("x"))

	first := newChunk()
	name := first.konst(x)
	if err := m.Execute(first.push(value.Integer(1)).op(bytecode.OP_INSERT, name).end()); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if len(m.Stack()) != 0 {
		t.Fatalf("insert must consume its operand")
	}

	second := newChunk()
	name = second.konst(x)
	chunk := second.op(bytecode.OP_GET_GLOBAL, name).push(value.Integer(1)).op(bytecode.OP_ADD).end()
	if err := m.Execute(chunk); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if top := mustTop(t, m); top.I != 2 {
		t.Fatalf("expected 2, got %v", top)
	}
	if v, ok := m.Global("x"); !ok || v.I != 1 {
		t.Fatalf("expected global x=1, got %v %v", v, ok)
	}
}

func TestInsertWithNonStringNameDoesNotBind(t *testing.T) {
	m := New(nil)
	b := newChunk()
	bad := b.konst(value.Integer(5))
	chunk := b.push(value.Integer(1)).op(bytecode.OP_INSERT, bad).end()
	if err := m.Execute(chunk); !errors.Is(err, ErrInvalidBytecode) {
		t.Fatalf("expected invalid bytecode, got %v", err)
	}
	if len(m.GlobalNames()) != 0 {
		t.Fatalf("failed insert must not bind, got %v", m.GlobalNames())
	}
	if len(m.Stack()) != 1 {
		t.Fatalf("failed insert must leave its operand, stack=%v", m.Stack())
	}
}

func TestUndefinedGlobalFaults(t *testing.T) {
	m := New(nil)
	b := newChunk()
	name := b.konst(value.FromString(m.Pool().Intern("missing")))
	err := m.Execute(b.op(bytecode.OP_GET_GLOBAL, name).end())
	if !errors.Is(err, ErrUndefinedGlobal) {
		t.Fatalf("expected undefined global, got %v", err)
	}
	if got := err.Error(); got != "[Line 1:1] Runtime error: Undefined variable 'missing'." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestArithmeticFaults(t *testing.T) {
	pool := value.NewPool()
	tests := []struct {
		name string
		a, b value.Value
		op   byte
		want error
	}{
		{"add overflow", value.Integer(math.MaxInt64), value.Integer(1), bytecode.OP_ADD, ErrIntegerOverflow},
		{"sub overflow", value.Integer(math.MinInt64), value.Integer(1), bytecode.OP_SUB, ErrIntegerOverflow},
		{"mul overflow", value.Integer(math.MaxInt64), value.Integer(2), bytecode.OP_MUL, ErrIntegerOverflow},
		{"div min by -1", value.Integer(math.MinInt64), value.Integer(-1), bytecode.OP_DIV, ErrIntegerOverflow},
		{"div by zero", value.Integer(1), value.Integer(0), bytecode.OP_DIV, ErrDivisionByZero},
		{"mod by zero", value.Integer(1), value.Integer(0), bytecode.OP_MOD, ErrDivisionByZero},
		{"string add", value.FromString(pool.Intern("a")), value.Integer(1), bytecode.OP_ADD, ErrTypeMismatch},
		{"bool sub", value.Bool(true), value.Integer(1), bytecode.OP_SUB, ErrTypeMismatch},
		{"float bitand", value.Float(1), value.Integer(1), bytecode.OP_BIT_AND, ErrTypeMismatch},
		{"negative shift", value.Integer(1), value.Integer(-1), bytecode.OP_SHL, ErrNegativeShift},
		{"compare mixed", value.FromString(pool.Intern("a")), value.Integer(1), bytecode.OP_LT, ErrTypeMismatch},
	}
	for _, tt := range tests {
		m := New(pool)
		chunk := newChunk().push(tt.a).push(tt.b).op(tt.op).end()
		if err := m.Execute(chunk); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestBinaryResults(t *testing.T) {
	pool := value.NewPool()
	str := func(s string) value.Value { return value.FromString(pool.Intern(s)) }
	tests := []struct {
		a, b value.Value
		op   byte
		want value.Value
	}{
		{value.Integer(7), value.Integer(2), bytecode.OP_DIV, value.Integer(3)},
		{value.Integer(-7), value.Integer(2), bytecode.OP_MOD, value.Integer(-1)},
		{value.Float(7), value.Integer(2), bytecode.OP_DIV, value.Float(3.5)},
		{value.Float(1), value.Float(0), bytecode.OP_DIV, value.Float(math.Inf(1))},
		{value.Integer(1), value.Float(1), bytecode.OP_EQ, value.Bool(false)},
		{value.Integer(1), value.Float(1), bytecode.OP_NEQ, value.Bool(true)},
		{value.Integer(1), value.Float(1.5), bytecode.OP_LT, value.Bool(true)},
		{str("abc"), str("abd"), bytecode.OP_LT, value.Bool(true)},
		{str("abc"), str("abc"), bytecode.OP_EQ, value.Bool(true)},
		{value.Integer(6), value.Integer(3), bytecode.OP_BIT_AND, value.Integer(2)},
		{value.Integer(6), value.Integer(3), bytecode.OP_BIT_OR, value.Integer(7)},
		{value.Integer(6), value.Integer(3), bytecode.OP_BIT_XOR, value.Integer(5)},
		{value.Integer(1), value.Integer(4), bytecode.OP_SHL, value.Integer(16)},
		{value.Integer(-16), value.Integer(2), bytecode.OP_SHR, value.Integer(-4)},
	}
	for i, tt := range tests {
		m := New(pool)
		chunk := newChunk().push(tt.a).push(tt.b).op(tt.op).end()
		if err := m.Execute(chunk); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if top := mustTop(t, m); !value.Equal(top, tt.want) {
			t.Fatalf("case %d: expected %v (%s), got %v (%s)", i, tt.want, value.TypeName(tt.want), top, value.TypeName(top))
		}
	}
}

func TestJumpIfFalseKeepsCondition(t *testing.T) {
	m := New(nil)
	// false and 1
	b := newChunk().op(bytecode.OP_FALSE)
	b.op(bytecode.OP_JUMP_IF_FALSE, 8)
	b.op(bytecode.OP_POP)
	b.push(value.Integer(1))
	chunk := b.end()
	if err := m.Execute(chunk); err != nil {
		t.Fatalf("execute: %v", err)
	}
	stack := m.Stack()
	if len(stack) != 1 || !value.Equal(stack[0], value.Bool(false)) {
		t.Fatalf("expected [false], got %v", stack)
	}
}

func TestStackOverflow(t *testing.T) {
	m := New(nil)
	m.SetMaxStack(2)
	chunk := newChunk().op(bytecode.OP_NIL).op(bytecode.OP_NIL).op(bytecode.OP_NIL).end()
	if err := m.Execute(chunk); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestInstructionLimit(t *testing.T) {
	m := New(nil)
	m.SetInstructionLimit(2)
	chunk := newChunk().op(bytecode.OP_NIL).op(bytecode.OP_POP).op(bytecode.OP_NIL).end()
	if err := m.Execute(chunk); !errors.Is(err, ErrInstructionLimit) {
		t.Fatalf("expected instruction limit, got %v", err)
	}
}

func TestMissingEndAndUnknownOpcode(t *testing.T) {
	m := New(nil)
	if err := m.Execute(&bytecode.Chunk{Code: []byte{bytecode.OP_NIL}}); !errors.Is(err, ErrInvalidBytecode) {
		t.Fatalf("expected invalid bytecode for missing end, got %v", err)
	}
	if err := m.Execute(&bytecode.Chunk{Code: []byte{0x7F}}); !errors.Is(err, ErrInvalidBytecode) {
		t.Fatalf("expected invalid bytecode for unknown opcode, got %v", err)
	}
	if err := m.Execute(&bytecode.Chunk{Code: []byte{bytecode.OP_PUSH, 0, 0, bytecode.OP_END}}); !errors.Is(err, ErrInvalidBytecode) {
		t.Fatalf("expected invalid bytecode for missing constant, got %v", err)
	}
}

func TestPrintWritesOutput(t *testing.T) {
	m := New(nil)
	var buf bytes.Buffer
	m.SetOutput(&buf)
	chunk := newChunk().push(value.Float(2)).op(bytecode.OP_PRINT).end()
	if err := m.Execute(chunk); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if buf.String() != "2.0\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestTraceHook(t *testing.T) {
	m := New(nil)
	var names []string
	m.SetTraceHook(func(info TraceInfo) {
		names = append(names, info.Name)
	})
	if err := m.Execute(newChunk().op(bytecode.OP_TRUE).op(bytecode.OP_NOT).end()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := []string{"OP_TRUE", "OP_NOT", "OP_END"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestDuplicateCopiesGlobals(t *testing.T) {
	m := New(nil)
	m.DefineGlobal("a", value.Integer(1))
	dup := m.Duplicate()
	dup.DefineGlobal("a", value.Integer(2))
	dup.DefineGlobal("b", value.Integer(3))

	if v, _ := m.Global("a"); v.I != 1 {
		t.Fatalf("original global changed: %v", v)
	}
	if _, ok := m.Global("b"); ok {
		t.Fatalf("duplicate leaked global b")
	}
	if dup.Pool() != m.Pool() {
		t.Fatalf("duplicate must share the intern pool")
	}
}

func TestBuiltinDispatch(t *testing.T) {
	const opcode byte = 0x9F
	if _, ok := lookupBuiltin(opcode); !ok {
		RegisterBuiltin("double", opcode, 1, func(rt *VM) error {
			v := rt.Pop()
			if v.Kind != value.KindInteger {
				return Errorf(ErrTypeMismatch, "double expects an integer")
			}
			rt.Push(value.Integer(v.I * 2))
			return nil
		})
	}
	m := New(nil)
	if err := m.Execute(newChunk().push(value.Integer(21)).op(opcode).end()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if top := mustTop(t, m); top.I != 42 {
		t.Fatalf("expected 42, got %v", top)
	}
	err := m.Execute(newChunk().op(bytecode.OP_NIL).op(opcode).end())
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if err := m.Execute(newChunk().op(opcode).end()); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected underflow for missing argument, got %v", err)
	}
}
