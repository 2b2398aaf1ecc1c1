package minic

import (
	"fmt"
	"strings"

	"minic.dev/compiler/pkg/token"
)

// ErrorKind enumerates the closed set of ways compilation can fail. The
// tokenizer itself never returns an error — it either returns a token or
// terminates the sequence; these are raised by the parser as it consumes
// that sequence.
type ErrorKind string

const (
	// UnexpectedTokenKind is raised when lookahead does not match any
	// production the parser tried; Expected lists what would have matched.
	UnexpectedTokenKind ErrorKind = "unexpected_token"
	// UnexpectedEOFKind is raised when the token stream is exhausted at a
	// position a caller required a token.
	UnexpectedEOFKind ErrorKind = "unexpected_eof"
	// NotALeftValueKind is raised when an assignment's left-hand side is
	// not a LocalVariable.
	NotALeftValueKind ErrorKind = "not_a_left_value"
)

// CompileError is the single error sum type exposed by this package. Parse
// failures surface as a CompileError, except a call written with more than
// six arguments, which makes the parser panic. Code-generation "impossible
// state" failures (too many call arguments, an l-value request against a
// non-LocalVariable) panic as well; for a tree built by the parser they
// indicate a bug in the parser, not a malformed program.
type CompileError struct {
	Kind       ErrorKind
	Source     string
	IndexStart int
	Expected   []token.Kind // populated only for UnexpectedTokenKind
}

func (e *CompileError) Error() string {
	var b strings.Builder

	fmt.Fprint(&b, "compile error: ")
	switch e.Kind {
	case UnexpectedTokenKind:
		fmt.Fprintf(&b, "unexpected token at %d\n", e.IndexStart)
		fmt.Fprintf(&b, "%v expected\n", e.Expected)
	case UnexpectedEOFKind:
		fmt.Fprintf(&b, "unexpected EOF at %d\n", e.IndexStart)
	case NotALeftValueKind:
		fmt.Fprintf(&b, "not a left value at %d\n", e.IndexStart)
	}

	fmt.Fprintln(&b, e.Source)
	fmt.Fprintf(&b, "%s^", strings.Repeat(" ", e.IndexStart))

	return b.String()
}

func unexpectedToken(source string, indexStart int, expected ...token.Kind) *CompileError {
	return &CompileError{Kind: UnexpectedTokenKind, Source: source, IndexStart: indexStart, Expected: expected}
}

func unexpectedEOF(source string, indexStart int) *CompileError {
	return &CompileError{Kind: UnexpectedEOFKind, Source: source, IndexStart: indexStart}
}

func notALeftValue(source string, indexStart int) *CompileError {
	return &CompileError{Kind: NotALeftValueKind, Source: source, IndexStart: indexStart}
}
