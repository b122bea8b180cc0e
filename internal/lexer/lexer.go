package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/xirelogy/go-hymn/internal/token"
)

// commentMarker starts a comment running to the end of the line.
const commentMarker = '#'

// Lexer converts source text into a stream of tokens.
type Lexer struct {
	input   string
	pos     int  // current position in bytes
	readPos int  // next read position
	ch      byte // current char
	line    int
	column  int
}

// New creates a lexer for the provided source text.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// NextToken returns the next token from the input. Once the input is
// exhausted every call returns an EOF token at the same position.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()

		if l.atEnd() {
			return l.endToken()
		}

		if l.ch == commentMarker {
			l.skipLineComment()
			continue
		}

		switch l.ch {
		case '=':
			return l.either('=', token.Equal, token.Assign)
		case '!':
			return l.either('=', token.NotEqual, token.Bang)
		case '<':
			switch l.peekChar() {
			case '=':
				return l.pair(token.LessEqual)
			case '<':
				return l.pair(token.ShiftLeft)
			}
			return l.single(token.Less)
		case '>':
			switch l.peekChar() {
			case '=':
				return l.pair(token.GreaterEqual)
			case '>':
				return l.pair(token.ShiftRight)
			}
			return l.single(token.Greater)
		case '+':
			return l.single(token.Plus)
		case '-':
			return l.single(token.Minus)
		case '*':
			return l.single(token.Star)
		case '/':
			return l.single(token.Slash)
		case '%':
			return l.single(token.Percent)
		case '&':
			return l.single(token.BitAnd)
		case '|':
			return l.single(token.BitOr)
		case '^':
			return l.single(token.BitXor)
		case '~':
			return l.single(token.BitNot)
		case ',':
			return l.single(token.Comma)
		case ';':
			return l.single(token.Semicolon)
		case '(':
			return l.single(token.LParen)
		case ')':
			return l.single(token.RParen)
		case '"', '\'':
			return l.readString(l.ch)
		default:
			if isLetter(l.ch) {
				return l.readIdentifier()
			}
			if isDigit(l.ch) {
				return l.readNumber()
			}
			return l.readUnknown()
		}
	}
}

func (l *Lexer) makeToken(t token.Type) token.Token {
	return token.Token{
		Type: t,
		Pos: token.Position{
			Offset: l.pos,
			Line:   l.line,
			Column: l.column,
		},
	}
}

func (l *Lexer) endToken() token.Token {
	tok := l.makeToken(token.EOF)
	tok.Pos.Column = l.column + 1
	return tok
}

// single emits a one-character token.
func (l *Lexer) single(t token.Type) token.Token {
	tok := l.makeToken(t)
	tok.Literal = l.input[l.pos : l.pos+1]
	l.readChar()
	return tok
}

// pair emits a two-character token.
func (l *Lexer) pair(t token.Type) token.Token {
	tok := l.makeToken(t)
	tok.Literal = l.input[l.pos : l.pos+2]
	l.readChar()
	l.readChar()
	return tok
}

func (l *Lexer) either(next byte, two, one token.Type) token.Token {
	if l.peekChar() == next {
		return l.pair(two)
	}
	return l.single(one)
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && (l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n') {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.ch != '\n' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() token.Token {
	tok := l.makeToken(token.Ident)
	start := l.pos
	for !l.atEnd() && (isLetter(l.ch) || isDigit(l.ch)) {
		l.readChar()
	}
	tok.Literal = l.input[start:l.pos]
	tok.Type = token.LookupIdent(tok.Literal)
	return tok
}

func (l *Lexer) readNumber() token.Token {
	tok := l.makeToken(token.Integer)
	start := l.pos
	for !l.atEnd() && isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		tok.Type = token.Float
		l.readChar()
		for !l.atEnd() && isDigit(l.ch) {
			l.readChar()
		}
	}
	tok.Literal = l.input[start:l.pos]
	return tok
}

// readString scans a quoted literal. The token literal keeps the quotes
// and escape sequences exactly as written.
func (l *Lexer) readString(quote byte) token.Token {
	tok := l.makeToken(token.String)
	start := l.pos
	l.readChar() // opening quote
	for {
		if l.atEnd() {
			tok.Type = token.Error
			tok.Literal = l.input[start:l.pos]
			tok.Message = "Unterminated string."
			return tok
		}
		if l.ch == '\\' {
			l.readChar()
			if !l.atEnd() {
				l.readChar()
			}
			continue
		}
		if l.ch == quote {
			l.readChar()
			break
		}
		l.readChar()
	}
	tok.Literal = l.input[start:l.pos]
	return tok
}

func (l *Lexer) readUnknown() token.Token {
	tok := l.makeToken(token.Error)
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	tok.Literal = l.input[l.pos : l.pos+size]
	if r == utf8.RuneError {
		tok.Message = fmt.Sprintf("Unknown character 0x%02X.", l.ch)
	} else {
		tok.Message = fmt.Sprintf("Unknown character '%c'.", r)
	}
	for i := 0; i < size; i++ {
		l.readChar()
	}
	return tok
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.pos = len(l.input)
		l.readPos = len(l.input)
		l.ch = 0
		return
	}

	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}
