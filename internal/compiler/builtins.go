package compiler

import (
	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/token"

	_ "github.com/xirelogy/go-hymn/internal/builtins"
)

// builtinCall compiles name(args...) when name is a registered builtin.
// The current token is the opening parenthesis.
func (c *compiler) builtinCall(nameTok token.Token) bool {
	spec, ok := runtime.LookupByName(nameTok.Literal)
	if !ok {
		return false
	}
	c.advance()
	argc := 0
	if !c.check(token.RParen) {
		for {
			c.expression()
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RParen, "Expected ')' after arguments.")
	if argc != spec.Arity {
		c.errorf(nameTok, "Builtin %s expects %d argument(s), got %d.", spec.Name, spec.Arity, argc)
		return true
	}
	c.mark(nameTok)
	c.emitByte(spec.Opcode)
	return true
}
