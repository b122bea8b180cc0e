package token

import "strings"

// Type identifies the category of a token.
type Type string

// Token carries the lexical item along with its source position.
// Literal is a slice of the source buffer, not a copy.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
	// Message is set on Error tokens only.
	Message string
}

// Position describes a byte offset and 1-based line/column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// End returns the position immediately after the token's lexeme.
func (t Token) End() Position {
	end := Position{
		Offset: t.Pos.Offset + len(t.Literal),
		Line:   t.Pos.Line,
		Column: t.Pos.Column + len(t.Literal),
	}
	if nl := strings.Count(t.Literal, "\n"); nl > 0 {
		end.Line += nl
		end.Column = len(t.Literal) - strings.LastIndexByte(t.Literal, '\n')
	}
	return end
}

const (
	Error Type = "ERROR"
	EOF   Type = "EOF"

	// identifiers and literals
	Ident   Type = "IDENT"
	Integer Type = "INTEGER"
	Float   Type = "FLOAT"
	String  Type = "STRING"

	// keywords
	Let   Type = "LET"
	Print Type = "PRINT"
	None  Type = "NONE"
	True  Type = "TRUE"
	False Type = "FALSE"
	And   Type = "AND"
	Or    Type = "OR"

	// operators
	Assign       Type = "ASSIGN"       // =
	Plus         Type = "PLUS"         // +
	Minus        Type = "MINUS"        // -
	Star         Type = "STAR"         // *
	Slash        Type = "SLASH"        // /
	Percent      Type = "PERCENT"      // %
	Bang         Type = "BANG"         // !
	Equal        Type = "EQUAL"        // ==
	NotEqual     Type = "NOTEQUAL"     // !=
	Less         Type = "LESS"         // <
	LessEqual    Type = "LESSEQUAL"    // <=
	Greater      Type = "GREATER"      // >
	GreaterEqual Type = "GREATEREQUAL" // >=
	BitAnd       Type = "BITAND"       // &
	BitOr        Type = "BITOR"        // |
	BitXor       Type = "BITXOR"       // ^
	BitNot       Type = "BITNOT"       // ~
	ShiftLeft    Type = "SHL"          // <<
	ShiftRight   Type = "SHR"          // >>

	// delimiters
	Comma     Type = "COMMA"
	Semicolon Type = "SEMICOLON"
	LParen    Type = "LPAREN"
	RParen    Type = "RPAREN"
)

var keywords = map[string]Type{
	"let":   Let,
	"print": Print,
	"none":  None,
	"true":  True,
	"false": False,
	"and":   And,
	"or":    Or,
}

// LookupIdent returns the keyword token type or Ident.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return Ident
}
