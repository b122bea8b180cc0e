package bytecode

import "github.com/xirelogy/go-hymn/internal/value"

// Chunk is a compiled program: code, constant pool and position table.
type Chunk struct {
	Name   string
	Code   []byte
	Consts []value.Value
	Lines  []LineInfo
}

// LineInfo maps bytecode offsets to source positions (start-inclusive).
// An entry covers every offset up to the next entry.
type LineInfo struct {
	Offset int
	Row    int
	Column int
}

// Position returns the source row and column recorded for offset.
// Both are zero when the table has no entry at or before offset.
func (c *Chunk) Position(offset int) (int, int) {
	row, col := 0, 0
	for _, info := range c.Lines {
		if info.Offset > offset {
			break
		}
		row, col = info.Row, info.Column
	}
	return row, col
}

// ReadU16 decodes the big-endian operand starting at offset.
func (c *Chunk) ReadU16(offset int) (uint16, bool) {
	if offset+1 >= len(c.Code) {
		return 0, false
	}
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1]), true
}
