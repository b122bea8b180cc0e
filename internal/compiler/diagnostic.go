package compiler

import (
	"fmt"

	"github.com/xirelogy/go-hymn/internal/token"
)

// Diagnostic is a compile-time error. Only the first one raised during
// a compilation is kept.
type Diagnostic struct {
	Script  string
	Row     int
	Column  int
	Lexeme  string
	AtEnd   bool
	Message string
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("[Line %d:%d] Error", d.Row, d.Column)
	switch {
	case d.AtEnd:
		msg += " at end"
	case d.Lexeme != "":
		msg += fmt.Sprintf(" at '%s'", d.Lexeme)
	}
	msg += ": " + d.Message
	if d.Script != "" {
		msg = d.Script + ": " + msg
	}
	return msg
}

func (c *compiler) error(msg string) {
	c.errorAt(c.previous, msg)
}

func (c *compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *compiler) errorf(tok token.Token, format string, args ...interface{}) {
	c.errorAt(tok, fmt.Sprintf(format, args...))
}

// errorAt latches the first diagnostic and enters recovery mode. Errors
// raised while recovering are dropped.
func (c *compiler) errorAt(tok token.Token, msg string) {
	if c.panicking {
		return
	}
	c.panicking = true
	if c.err != nil {
		return
	}
	d := &Diagnostic{
		Script:  c.script,
		Row:     tok.Pos.Line,
		Column:  tok.Pos.Column,
		Message: msg,
	}
	switch tok.Type {
	case token.EOF:
		d.AtEnd = true
		if c.lastEnd.Line > 0 {
			d.Row, d.Column = c.lastEnd.Line, c.lastEnd.Column
		}
	case token.Error:
		// the message already names the offending text
	default:
		d.Lexeme = tok.Literal
	}
	c.err = d
	log().Debugf("diagnostic: %s", d.Error())
}

// synchronize skips tokens until a likely statement boundary.
func (c *compiler) synchronize() {
	c.panicking = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Let, token.Print:
			return
		}
		c.advance()
	}
}
