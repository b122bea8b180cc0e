package compiler

import "github.com/xirelogy/go-hymn/internal/bytecode"

const (
	OP_PUSH          = bytecode.OP_PUSH
	OP_NIL           = bytecode.OP_NIL
	OP_TRUE          = bytecode.OP_TRUE
	OP_FALSE         = bytecode.OP_FALSE
	OP_POP           = bytecode.OP_POP
	OP_DUP           = bytecode.OP_DUP
	OP_ADD           = bytecode.OP_ADD
	OP_SUB           = bytecode.OP_SUB
	OP_MUL           = bytecode.OP_MUL
	OP_DIV           = bytecode.OP_DIV
	OP_MOD           = bytecode.OP_MOD
	OP_NEG           = bytecode.OP_NEG
	OP_NOT           = bytecode.OP_NOT
	OP_EQ            = bytecode.OP_EQ
	OP_NEQ           = bytecode.OP_NEQ
	OP_LT            = bytecode.OP_LT
	OP_LTE           = bytecode.OP_LTE
	OP_GT            = bytecode.OP_GT
	OP_GTE           = bytecode.OP_GTE
	OP_BIT_AND       = bytecode.OP_BIT_AND
	OP_BIT_OR        = bytecode.OP_BIT_OR
	OP_BIT_XOR       = bytecode.OP_BIT_XOR
	OP_BIT_NOT       = bytecode.OP_BIT_NOT
	OP_SHL           = bytecode.OP_SHL
	OP_SHR           = bytecode.OP_SHR
	OP_GET_GLOBAL    = bytecode.OP_GET_GLOBAL
	OP_INSERT        = bytecode.OP_INSERT
	OP_JUMP          = bytecode.OP_JUMP
	OP_JUMP_IF_FALSE = bytecode.OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE  = bytecode.OP_JUMP_IF_TRUE
	OP_PRINT         = bytecode.OP_PRINT
	OP_END           = bytecode.OP_END
)
