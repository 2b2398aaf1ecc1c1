// Package token defines the lexical tokens produced by the tokenizer and
// consumed by the parser.
package token

import "fmt"

// Kind enumerates the closed set of token kinds the tokenizer can ever
// produce. String-valued rather than a bare iota, so kinds print usefully
// in 'expected token' diagnostics.
type Kind string

const (
	Integer    Kind = "integer"
	Identifier Kind = "identifier"

	Return Kind = "return"
	If     Kind = "if"
	Else   Kind = "else"
	While  Kind = "while"
	For    Kind = "for"

	Plus         Kind = "+"
	Minus        Kind = "-"
	Star         Kind = "*"
	Slash        Kind = "/"
	LParen       Kind = "("
	RParen       Kind = ")"
	Lt           Kind = "<"
	Gt           Kind = ">"
	LtEq         Kind = "<="
	GtEq         Kind = ">="
	LBrace       Kind = "{"
	RBrace       Kind = "}"
	Eq           Kind = "=="
	Ne           Kind = "!="
	Assign       Kind = "="
	Semicolon    Kind = ";"
	Comma        Kind = ","

	EOF Kind = "EOF"
)

// keywords maps a reclassified identifier lexeme to its keyword Kind.
var keywords = map[string]Kind{
	"return": Return,
	"if":     If,
	"else":   Else,
	"while":  While,
	"for":    For,
}

// LookupKeyword reports whether 'lexeme' is a reserved keyword, returning
// its Kind if so.
func LookupKeyword(lexeme string) (Kind, bool) {
	kind, ok := keywords[lexeme]
	return kind, ok
}

// Token is the tagged-variant type produced by the tokenizer: 'Kind'
// selects the variant, and only the field(s) relevant to that variant are
// meaningful (IntValue for Integer, Text for Identifier).
type Token struct {
	Kind       Kind
	IndexStart int

	IntValue int32  // valid when Kind == Integer
	Text     string // valid when Kind == Identifier
}

func (t Token) String() string {
	switch t.Kind {
	case Integer:
		return fmt.Sprintf("%d", t.IntValue)
	case Identifier:
		return t.Text
	default:
		return string(t.Kind)
	}
}
