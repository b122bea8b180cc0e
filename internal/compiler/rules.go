package compiler

import "github.com/xirelogy/go-hymn/internal/token"

// Precedence orders binding strength from loosest to tightest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecBitwise
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type prefixFn func(c *compiler, canAssign bool)

// infixFn receives the assignable target parsed as its left operand, or
// nil when the left operand is not a bare variable.
type infixFn func(c *compiler, canAssign bool, lhs *target)

type parseRule struct {
	prefix     prefixFn
	infix      infixFn
	precedence Precedence
}

var rules map[token.Type]parseRule

// The table refers to functions that consult it, so it is filled in
// init to break the initialization cycle.
func init() {
	rules = map[token.Type]parseRule{
		token.LParen:       {prefix: grouping, infix: call, precedence: PrecCall},
		token.Minus:        {prefix: unary, infix: binary, precedence: PrecTerm},
		token.Plus:         {infix: binary, precedence: PrecTerm},
		token.Star:         {infix: binary, precedence: PrecFactor},
		token.Slash:        {infix: binary, precedence: PrecFactor},
		token.Percent:      {infix: binary, precedence: PrecFactor},
		token.Bang:         {prefix: unary},
		token.BitNot:       {prefix: unary},
		token.Equal:        {infix: binary, precedence: PrecEquality},
		token.NotEqual:     {infix: binary, precedence: PrecEquality},
		token.Less:         {infix: binary, precedence: PrecComparison},
		token.LessEqual:    {infix: binary, precedence: PrecComparison},
		token.Greater:      {infix: binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: binary, precedence: PrecComparison},
		token.BitAnd:       {infix: binary, precedence: PrecBitwise},
		token.BitOr:        {infix: binary, precedence: PrecBitwise},
		token.BitXor:       {infix: binary, precedence: PrecBitwise},
		token.ShiftLeft:    {infix: binary, precedence: PrecBitwise},
		token.ShiftRight:   {infix: binary, precedence: PrecBitwise},
		token.And:          {infix: and, precedence: PrecAnd},
		token.Or:           {infix: or, precedence: PrecOr},
		token.Assign:       {infix: assign, precedence: PrecAssignment},
		token.Ident:        {prefix: variable},
		token.Integer:      {prefix: integer},
		token.Float:        {prefix: float},
		token.String:       {prefix: str},
		token.None:         {prefix: literal},
		token.True:         {prefix: literal},
		token.False:        {prefix: literal},
	}
}

func getRule(t token.Type) parseRule {
	return rules[t]
}

var binaryOps = map[token.Type]byte{
	token.Plus:         OP_ADD,
	token.Minus:        OP_SUB,
	token.Star:         OP_MUL,
	token.Slash:        OP_DIV,
	token.Percent:      OP_MOD,
	token.Equal:        OP_EQ,
	token.NotEqual:     OP_NEQ,
	token.Less:         OP_LT,
	token.LessEqual:    OP_LTE,
	token.Greater:      OP_GT,
	token.GreaterEqual: OP_GTE,
	token.BitAnd:       OP_BIT_AND,
	token.BitOr:        OP_BIT_OR,
	token.BitXor:       OP_BIT_XOR,
	token.ShiftLeft:    OP_SHL,
	token.ShiftRight:   OP_SHR,
}

var unaryOps = map[token.Type]byte{
	token.Minus:  OP_NEG,
	token.Bang:   OP_NOT,
	token.BitNot: OP_BIT_NOT,
}
