// Package lexer implements the hand-written, maximal-munch tokenizer for
// the compiler's source language.
package lexer

import (
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"minic.dev/compiler/pkg/token"
)

var (
	integerPattern    = regexp.MustCompile(`^-?(0|[1-9][0-9]*)`)
	identifierPattern = regexp.MustCompile(`^[_A-Za-z][_A-Za-z0-9]*`)
)

// twoBytePunctuators must be tried before oneBytePunctuators so maximal
// munch picks '<=' over '<' followed by '='.
var twoBytePunctuators = []struct {
	lexeme string
	kind   token.Kind
}{
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"==", token.Eq},
	{"!=", token.Ne},
}

var oneBytePunctuators = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'(': token.LParen,
	')': token.RParen,
	'<': token.Lt,
	'>': token.Gt,
	'{': token.LBrace,
	'}': token.RBrace,
	'=': token.Assign,
	';': token.Semicolon,
	',': token.Comma,
}

// Tokenizer scans a borrowed byte slice and produces one token per call to
// Next, in maximal-munch order, ending in a sentinel EOF token. It is
// restartable per fresh instance and is finite: bounded by len(text).
type Tokenizer struct {
	text  []byte
	index int
	done  bool // set once the EOF sentinel has been produced
}

// New returns a Tokenizer positioned at the start of 'text'.
func New(text string) *Tokenizer {
	return &Tokenizer{text: []byte(text)}
}

func (tz *Tokenizer) skipWhitespace() {
	for tz.index < len(tz.text) && isASCIIWhitespace(tz.text[tz.index]) {
		tz.index++
	}
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

// Next returns the next token and true, or a zero Token and false once the
// EOF sentinel has already been produced by a prior call.
func (tz *Tokenizer) Next() (token.Token, bool) {
	if tz.done {
		return token.Token{}, false
	}

	tz.skipWhitespace()
	start := tz.index

	if tz.index >= len(tz.text) {
		tz.done = true
		tok := token.Token{Kind: token.EOF, IndexStart: start}
		logrus.WithField("stage", "lexer").Debugf("emit %s at %d", tok.Kind, start)
		return tok, true
	}

	for _, p := range twoBytePunctuators {
		if hasPrefixAt(tz.text, tz.index, p.lexeme) {
			tz.index += 2
			tok := token.Token{Kind: p.kind, IndexStart: start}
			logrus.WithField("stage", "lexer").Debugf("emit %s at %d", tok.Kind, start)
			return tok, true
		}
	}

	if kind, ok := oneBytePunctuators[tz.text[tz.index]]; ok {
		tz.index++
		tok := token.Token{Kind: kind, IndexStart: start}
		logrus.WithField("stage", "lexer").Debugf("emit %s at %d", tok.Kind, start)
		return tok, true
	}

	if loc := integerPattern.FindIndex(tz.text[tz.index:]); loc != nil {
		lexeme := string(tz.text[tz.index+loc[0] : tz.index+loc[1]])
		value, err := strconv.ParseInt(lexeme, 10, 32)
		if err != nil {
			// The anchored pattern only matches well-formed decimal integers;
			// overflow past int32 is the sole way ParseInt can fail here.
			value = 0
		}
		tz.index += loc[1]
		tok := token.Token{Kind: token.Integer, IndexStart: start, IntValue: int32(value)}
		logrus.WithField("stage", "lexer").Debugf("emit %s(%d) at %d", tok.Kind, tok.IntValue, start)
		return tok, true
	}

	if loc := identifierPattern.FindIndex(tz.text[tz.index:]); loc != nil {
		lexeme := string(tz.text[tz.index+loc[0] : tz.index+loc[1]])
		tz.index += loc[1]

		if kind, isKeyword := token.LookupKeyword(lexeme); isKeyword {
			tok := token.Token{Kind: kind, IndexStart: start}
			logrus.WithField("stage", "lexer").Debugf("emit keyword %s at %d", tok.Kind, start)
			return tok, true
		}

		tok := token.Token{Kind: token.Identifier, IndexStart: start, Text: lexeme}
		logrus.WithField("stage", "lexer").Debugf("emit %s(%s) at %d", tok.Kind, tok.Text, start)
		return tok, true
	}

	// No rule matched: leave the cursor where it is and report nothing.
	// The parser's next peek surfaces this as an UnexpectedToken/UnexpectedEOF.
	return token.Token{}, false
}

func hasPrefixAt(text []byte, index int, prefix string) bool {
	if index+len(prefix) > len(text) {
		return false
	}
	return string(text[index:index+len(prefix)]) == prefix
}
