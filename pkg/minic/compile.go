package minic

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Compile is the single public entry point: it trims leading/trailing ASCII
// whitespace from 'text', parses it, lowers the result, and returns the
// generated assembly text. On a parse failure it returns the *CompileError
// unwrapped, so callers can type-assert for structured rendering; a call
// with more than six arguments and code-generation invariant violations
// panic rather than return an error (see CompileError).
func Compile(text string) (string, error) {
	trimmed := strings.Trim(text, " \t\n\r\f\v")

	parser := NewParser(trimmed)
	block, err := parser.Parse()
	if err != nil {
		logrus.WithField("stage", "compile").WithError(err).Debug("parse failed")
		return "", err
	}

	asm := NewCodeGenerator().Generate(block)
	logrus.WithField("stage", "compile").Debugf("generated %d bytes of assembly", len(asm))
	return asm, nil
}
