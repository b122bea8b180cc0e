package bytecode

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xirelogy/go-hymn/internal/value"
)

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w io.Writer
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// Disassemble writes the instruction listing followed by the constant
// pool and the position table.
func (d *Disassembler) Disassemble(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("nil chunk")
	}
	name := chunk.Name
	if name == "" {
		name = "<script>"
	}
	fmt.Fprintf(d.w, "chunk %s (code=%d, consts=%d)\n", name, len(chunk.Code), len(chunk.Consts))
	if err := d.disassembleCode(chunk); err != nil {
		return err
	}
	fmt.Fprintln(d.w, "constants:")
	for idx, c := range chunk.Consts {
		fmt.Fprintf(d.w, "  [%d] %s %s\n", idx, value.TypeName(c), value.Quote(c))
	}
	fmt.Fprintln(d.w, "lines:")
	for _, info := range chunk.Lines {
		fmt.Fprintf(d.w, "  %04d %d:%d\n", info.Offset, info.Row, info.Column)
	}
	return nil
}

func (d *Disassembler) disassembleCode(chunk *Chunk) error {
	code := chunk.Code
	for ip := 0; ip < len(code); {
		offset := ip
		op := code[ip]
		ip++
		posStr := "-"
		if row, col := chunk.Position(offset); row > 0 {
			posStr = strconv.Itoa(row) + ":" + strconv.Itoa(col)
		}
		detail, err := d.decodeOperands(op, chunk, &ip)
		if err != nil {
			return fmt.Errorf("offset %04d: %w", offset, err)
		}
		fmt.Fprintf(d.w, "%04d %6s %-16s", offset, posStr, Name(op))
		if detail != "" {
			fmt.Fprintf(d.w, " %s", detail)
		}
		fmt.Fprintln(d.w)
	}
	return nil
}

func (d *Disassembler) decodeOperands(op byte, chunk *Chunk, ip *int) (string, error) {
	code := chunk.Code
	switch op {
	case OP_PUSH:
		idx, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; %s", idx, formatConstRef(chunk, idx)), nil
	case OP_GET_GLOBAL, OP_INSERT:
		idx, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; name=%s", idx, formatConstRef(chunk, idx)), nil
	case OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE:
		target, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%04d", target), nil
	default:
		if info, ok := LookupBuiltinInfo(op); ok {
			return fmt.Sprintf("; arity=%d", info.Arity), nil
		}
		return "", nil
	}
}

func readU16(code []byte, ip *int) (uint16, error) {
	if *ip+1 >= len(code) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	hi := code[*ip]
	lo := code[*ip+1]
	*ip += 2
	return uint16(hi)<<8 | uint16(lo), nil
}

func formatConstRef(chunk *Chunk, idx uint16) string {
	if int(idx) >= len(chunk.Consts) {
		return "<invalid>"
	}
	return value.Quote(chunk.Consts[idx])
}
