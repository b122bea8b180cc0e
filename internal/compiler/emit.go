package compiler

import (
	"math"

	"github.com/xirelogy/go-hymn/internal/token"
	"github.com/xirelogy/go-hymn/internal/value"
)

const maxOperand = math.MaxUint16

// constKey identifies a literal for constant pool deduplication. Floats
// compare by bit pattern so 0.0 and -0.0 stay distinct.
type constKey struct {
	kind value.Kind
	bits uint64
	str  *value.String
}

func keyFor(v value.Value) constKey {
	switch v.Kind {
	case value.KindInteger:
		return constKey{kind: v.Kind, bits: uint64(v.I)}
	case value.KindFloat:
		return constKey{kind: v.Kind, bits: math.Float64bits(v.F)}
	case value.KindString:
		return constKey{kind: v.Kind, str: v.S}
	case value.KindBool:
		if v.B {
			return constKey{kind: v.Kind, bits: 1}
		}
	}
	return constKey{kind: v.Kind}
}

func (c *compiler) emitConst(v value.Value) {
	c.emitOperand(OP_PUSH, c.addConst(v))
}

func (c *compiler) addConst(v value.Value) uint16 {
	key := keyFor(v)
	if idx, ok := c.consts[key]; ok {
		return idx
	}
	if len(c.chunk.Consts) > maxOperand {
		c.error("Too many constants in one chunk.")
		return 0
	}
	idx := uint16(len(c.chunk.Consts))
	c.chunk.Consts = append(c.chunk.Consts, v)
	c.consts[key] = idx
	return idx
}

func (c *compiler) emitOperand(op byte, operand uint16) {
	c.emitBytes(op, byte(operand>>8), byte(operand))
}

func (c *compiler) emitByte(b byte) {
	c.recordLine()
	c.chunk.Code = append(c.chunk.Code, b)
}

func (c *compiler) emitBytes(b ...byte) {
	c.recordLine()
	c.chunk.Code = append(c.chunk.Code, b...)
}

func (c *compiler) emitJump(op byte) int {
	c.emitByte(op)
	// placeholder for u16
	c.chunk.Code = append(c.chunk.Code, 0xff, 0xff)
	return len(c.chunk.Code) - 2
}

// patchJump points the jump operand at pos to the next instruction.
// Targets are absolute offsets.
func (c *compiler) patchJump(pos int) {
	offset := len(c.chunk.Code)
	if offset > maxOperand {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk.Code[pos] = byte(offset >> 8)
	c.chunk.Code[pos+1] = byte(offset)
}

// truncate drops code emitted at or after offset along with its
// position entries.
func (c *compiler) truncate(offset int) {
	c.chunk.Code = c.chunk.Code[:offset]
	lines := c.chunk.Lines
	for len(lines) > 0 && lines[len(lines)-1].Offset >= offset {
		lines = lines[:len(lines)-1]
	}
	c.chunk.Lines = lines
}

// mark sets the source position recorded for following instructions.
func (c *compiler) mark(tok token.Token) {
	if tok.Pos.Line > 0 {
		c.row, c.col = tok.Pos.Line, tok.Pos.Column
	}
}

// recordLine appends a position entry when the position changes, so the
// table is run-length encoded.
func (c *compiler) recordLine() {
	if c.row == 0 {
		return
	}
	off := len(c.chunk.Code)
	if n := len(c.chunk.Lines); n > 0 {
		last := c.chunk.Lines[n-1]
		if last.Row == c.row && last.Column == c.col {
			return
		}
		if last.Offset == off {
			c.chunk.Lines[n-1] = LineInfo{Offset: off, Row: c.row, Column: c.col}
			return
		}
	}
	c.chunk.Lines = append(c.chunk.Lines, LineInfo{Offset: off, Row: c.row, Column: c.col})
}
