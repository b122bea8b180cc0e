package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xirelogy/go-hymn/internal/value"
)

func TestDisassembleBuiltinName(t *testing.T) {
	const opcode byte = 0x9E
	if _, ok := LookupBuiltinInfo(opcode); !ok {
		RegisterBuiltinInfo("probe", opcode, 2)
	}
	chunk := &Chunk{
		Code:  []byte{opcode, OP_END},
		Lines: []LineInfo{{Offset: 0, Row: 1, Column: 1}},
	}
	var buf bytes.Buffer
	if err := NewDisassembler(&buf).Disassemble(chunk); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "OP_BUILTIN_probe") {
		t.Fatalf("expected builtin name, got:\n%s", out)
	}
	if !strings.Contains(out, "arity=2") {
		t.Fatalf("expected arity, got:\n%s", out)
	}
}

func TestDisassembleSections(t *testing.T) {
	pool := value.NewPool()
	chunk := &Chunk{
		Name: "demo",
		Code: []byte{
			OP_PUSH, 0, 0,
			OP_INSERT, 0, 1,
			OP_JUMP, 0, 9,
			OP_END,
		},
		Consts: []value.Value{value.Integer(7), value.FromString(pool.Intern("x"))},
		Lines: []LineInfo{
			{Offset: 0, Row: 1, Column: 9},
			{Offset: 3, Row: 1, Column: 1},
		},
	}
	var buf bytes.Buffer
	if err := NewDisassembler(&buf).Disassemble(chunk); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"chunk demo (code=10, consts=2)",
		"0000    1:9 OP_PUSH          0 ; 7",
		"0003    1:1 OP_INSERT        1 ; name=\"x\"",
		"OP_JUMP          0009",
		"constants:",
		"  [0] integer 7",
		"  [1] string \"x\"",
		"lines:",
		"  0003 1:1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestDisassembleTruncatedOperand(t *testing.T) {
	chunk := &Chunk{Code: []byte{OP_PUSH, 0}}
	var buf bytes.Buffer
	if err := NewDisassembler(&buf).Disassemble(chunk); err == nil {
		t.Fatalf("expected error for truncated operand")
	}
}

func TestWidthAndPosition(t *testing.T) {
	if Width(OP_PUSH) != 3 || Width(OP_ADD) != 1 || Width(OP_JUMP_IF_TRUE) != 3 {
		t.Fatalf("unexpected widths")
	}
	chunk := &Chunk{Lines: []LineInfo{{Offset: 0, Row: 1, Column: 1}, {Offset: 4, Row: 2, Column: 3}}}
	if r, c := chunk.Position(3); r != 1 || c != 1 {
		t.Fatalf("expected 1:1, got %d:%d", r, c)
	}
	if r, c := chunk.Position(10); r != 2 || c != 3 {
		t.Fatalf("expected 2:3, got %d:%d", r, c)
	}
}
