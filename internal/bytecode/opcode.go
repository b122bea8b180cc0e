package bytecode

import "fmt"

// Opcodes are one byte. Operands that follow are u16 big-endian.
const (
	OP_PUSH byte = iota
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_DUP
	_ // reserved
	_ // reserved

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG
	OP_NOT
	_ // reserved

	OP_EQ
	OP_NEQ
	OP_LT
	OP_LTE
	OP_GT
	OP_GTE
	_ // reserved
	_ // reserved

	OP_BIT_AND
	OP_BIT_OR
	OP_BIT_XOR
	OP_BIT_NOT
	OP_SHL
	OP_SHR
	_ // reserved
	_ // reserved

	OP_GET_GLOBAL
	OP_INSERT
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_PRINT
	OP_END
)

const (
	// 0x80-0x9F: reserved for built-in operations.
	BuiltinFirst byte = 0x80
	BuiltinLast  byte = 0x9F
)

var opNames = map[byte]string{
	OP_PUSH:          "OP_PUSH",
	OP_NIL:           "OP_NIL",
	OP_TRUE:          "OP_TRUE",
	OP_FALSE:         "OP_FALSE",
	OP_POP:           "OP_POP",
	OP_DUP:           "OP_DUP",
	OP_ADD:           "OP_ADD",
	OP_SUB:           "OP_SUB",
	OP_MUL:           "OP_MUL",
	OP_DIV:           "OP_DIV",
	OP_MOD:           "OP_MOD",
	OP_NEG:           "OP_NEG",
	OP_NOT:           "OP_NOT",
	OP_EQ:            "OP_EQ",
	OP_NEQ:           "OP_NEQ",
	OP_LT:            "OP_LT",
	OP_LTE:           "OP_LTE",
	OP_GT:            "OP_GT",
	OP_GTE:           "OP_GTE",
	OP_BIT_AND:       "OP_BIT_AND",
	OP_BIT_OR:        "OP_BIT_OR",
	OP_BIT_XOR:       "OP_BIT_XOR",
	OP_BIT_NOT:       "OP_BIT_NOT",
	OP_SHL:           "OP_SHL",
	OP_SHR:           "OP_SHR",
	OP_GET_GLOBAL:    "OP_GET_GLOBAL",
	OP_INSERT:        "OP_INSERT",
	OP_JUMP:          "OP_JUMP",
	OP_JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE:  "OP_JUMP_IF_TRUE",
	OP_PRINT:         "OP_PRINT",
	OP_END:           "OP_END",
}

// Name returns the mnemonic for op. Builtin opcodes use their
// registered name.
func Name(op byte) string {
	if info, ok := LookupBuiltinInfo(op); ok {
		return "OP_BUILTIN_" + info.Name
	}
	if IsBuiltin(op) {
		return fmt.Sprintf("OP_BUILTIN_0x%02X", op)
	}
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_0x%02X", op)
}

// IsBuiltin reports whether op falls in the builtin range.
func IsBuiltin(op byte) bool {
	return op >= BuiltinFirst && op <= BuiltinLast
}

// Valid reports whether op is a defined opcode or a registered builtin.
func Valid(op byte) bool {
	if _, ok := opNames[op]; ok {
		return true
	}
	_, ok := LookupBuiltinInfo(op)
	return ok
}

// Width returns the encoded size of an instruction, opcode included.
func Width(op byte) int {
	switch op {
	case OP_PUSH, OP_GET_GLOBAL, OP_INSERT, OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE:
		return 3
	default:
		return 1
	}
}
