package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-hymn/internal/lexer"
	"github.com/xirelogy/go-hymn/internal/token"
	"github.com/xirelogy/go-hymn/internal/value"
)

func log() commonlog.Logger {
	return commonlog.GetLogger("hymn.compiler")
}

// Compile translates source into a chunk in a single pass. String
// constants are interned into pool. On failure the partially built
// chunk is returned together with the first *Diagnostic; it must not be
// executed.
func Compile(script, source string, pool *value.Pool) (*Chunk, error) {
	if pool == nil {
		pool = value.NewPool()
	}
	c := &compiler{
		lex:    lexer.New(source),
		pool:   pool,
		script: script,
		chunk:  &Chunk{Name: script},
		consts: make(map[constKey]uint16),
	}

	c.advance()
	for !c.match(token.EOF) {
		c.statement()
	}
	c.mark(c.previous)
	c.emitByte(OP_END)

	if c.err != nil {
		return c.chunk, c.err
	}
	log().Debugf("compiled %s: %d bytes, %d constants", displayName(script), len(c.chunk.Code), len(c.chunk.Consts))
	return c.chunk, nil
}

type compiler struct {
	lex    *lexer.Lexer
	pool   *value.Pool
	script string
	chunk  *Chunk
	consts map[constKey]uint16

	previous token.Token
	current  token.Token
	// lastEnd is the end of the last non-EOF token consumed, so errors at
	// end of input point just past the final lexeme.
	lastEnd token.Position

	err       *Diagnostic
	panicking bool

	// set by variable for the enclosing parsePrecedence to pick up
	assignable *target

	// value left by the previous expression statement, popped lazily so
	// the final one becomes the program result
	pendingPop bool
	row, col   int
}

// target records a just-emitted global read that an assignment may
// rewrite into a store.
type target struct {
	offset int
	name   uint16
	tok    token.Token
}

func displayName(script string) string {
	if script == "" {
		return "<script>"
	}
	return script
}

func (c *compiler) advance() {
	c.previous = c.current
	if c.previous.Type != token.EOF && c.previous.Type != "" {
		c.lastEnd = c.previous.End()
	}
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Message)
	}
}

func (c *compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(t token.Type, msg string) {
	if c.check(t) {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *compiler) statement() {
	if c.match(token.Semicolon) {
		return
	}
	if c.pendingPop {
		c.emitByte(OP_POP)
		c.pendingPop = false
	}
	switch {
	case c.match(token.Let):
		c.letStatement()
	case c.match(token.Print):
		c.printStatement()
	default:
		c.expression()
		c.pendingPop = true
	}
	c.match(token.Semicolon)
	if c.panicking {
		c.synchronize()
	}
}

func (c *compiler) letStatement() {
	letTok := c.previous
	c.consume(token.Ident, "Expected variable name after 'let'.")
	name := c.identifierConstant(c.previous)
	c.consume(token.Assign, "Expected '=' after variable name.")
	c.expression()
	c.mark(letTok)
	c.emitOperand(OP_INSERT, name)
}

func (c *compiler) printStatement() {
	printTok := c.previous
	c.expression()
	c.mark(printTok)
	c.emitByte(OP_PRINT)
}

func (c *compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence compiles a prefix term and then every infix operator
// binding at least as tightly as prec.
func (c *compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expected expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	c.assignable = nil
	prefix(c, canAssign)
	lhs := c.assignable
	c.assignable = nil

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign, lhs)
		lhs = nil
	}
}

func grouping(c *compiler, _ bool) {
	c.expression()
	c.consume(token.RParen, "Expected ')' after expression.")
}

func unary(c *compiler, _ bool) {
	opTok := c.previous
	c.parsePrecedence(PrecUnary)
	c.mark(opTok)
	c.emitByte(unaryOps[opTok.Type])
}

// binary compiles the right operand one level tighter than the
// operator, making every binary operator left-associative.
func binary(c *compiler, _ bool, _ *target) {
	opTok := c.previous
	rule := getRule(opTok.Type)
	c.parsePrecedence(rule.precedence + 1)
	c.mark(opTok)
	c.emitByte(binaryOps[opTok.Type])
}

func and(c *compiler, _ bool, _ *target) {
	opTok := c.previous
	c.mark(opTok)
	endJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitByte(OP_POP)
	c.parsePrecedence(PrecAnd + 1)
	c.patchJump(endJump)
}

func or(c *compiler, _ bool, _ *target) {
	opTok := c.previous
	c.mark(opTok)
	endJump := c.emitJump(OP_JUMP_IF_TRUE)
	c.emitByte(OP_POP)
	c.parsePrecedence(PrecOr + 1)
	c.patchJump(endJump)
}

// assign rewrites the variable read on its left into a store. The right
// side is parsed at the same precedence, so assignment is
// right-associative and yields the stored value.
func assign(c *compiler, canAssign bool, lhs *target) {
	eqTok := c.previous
	if !canAssign || lhs == nil {
		c.errorAt(eqTok, "Invalid assignment target.")
		c.parsePrecedence(PrecAssignment)
		return
	}
	c.truncate(lhs.offset)
	c.parsePrecedence(PrecAssignment)
	c.mark(lhs.tok)
	c.emitByte(OP_DUP)
	c.emitOperand(OP_INSERT, lhs.name)
}

func call(c *compiler, _ bool, _ *target) {
	c.error("Only builtin functions can be called.")
}

func variable(c *compiler, _ bool) {
	nameTok := c.previous
	if c.check(token.LParen) && c.builtinCall(nameTok) {
		return
	}
	name := c.identifierConstant(nameTok)
	offset := len(c.chunk.Code)
	c.mark(nameTok)
	c.emitOperand(OP_GET_GLOBAL, name)
	c.assignable = &target{offset: offset, name: name, tok: nameTok}
}

func literal(c *compiler, _ bool) {
	c.mark(c.previous)
	switch c.previous.Type {
	case token.None:
		c.emitByte(OP_NIL)
	case token.True:
		c.emitByte(OP_TRUE)
	case token.False:
		c.emitByte(OP_FALSE)
	}
}

func integer(c *compiler, _ bool) {
	n, err := strconv.ParseInt(c.previous.Literal, 10, 64)
	if err != nil {
		c.error("Integer literal out of range.")
		return
	}
	c.mark(c.previous)
	c.emitConst(value.Integer(n))
}

func float(c *compiler, _ bool) {
	f, err := strconv.ParseFloat(c.previous.Literal, 64)
	if err != nil || math.IsInf(f, 0) {
		c.error("Float literal out of range.")
		return
	}
	c.mark(c.previous)
	c.emitConst(value.Float(f))
}

func str(c *compiler, _ bool) {
	text, ok := unquote(c.previous.Literal)
	if !ok {
		c.error("Invalid escape sequence in string.")
		return
	}
	c.mark(c.previous)
	c.emitConst(value.FromString(c.pool.Intern(text)))
}

// unquote strips the delimiters from a string literal and resolves its
// escape sequences.
func unquote(lit string) (string, bool) {
	body := lit[1 : len(lit)-1]
	if strings.IndexByte(body, '\\') < 0 {
		return body, true
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(body[i])
		default:
			return "", false
		}
	}
	return b.String(), true
}

func (c *compiler) identifierConstant(tok token.Token) uint16 {
	return c.addConst(value.FromString(c.pool.Intern(tok.Literal)))
}
