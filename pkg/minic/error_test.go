package minic_test

import (
	"strings"
	"testing"

	"minic.dev/compiler/pkg/minic"
	"minic.dev/compiler/pkg/token"
)

func TestCompileErrorRendering(t *testing.T) {
	t.Run("not-a-left-value error includes source and caret", func(t *testing.T) {
		_, err := minic.Compile("1 = 2;")
		if err == nil {
			t.Fatal("expected an error")
		}
		msg := err.Error()
		if !strings.Contains(msg, "1 = 2;") {
			t.Errorf("expected the source line echoed, got:\n%s", msg)
		}
		if !strings.Contains(msg, "^") {
			t.Errorf("expected a caret in the rendered error, got:\n%s", msg)
		}
	})

	t.Run("unexpected token lists the expected kinds", func(t *testing.T) {
		_, err := minic.Compile("a = ;")
		compileErr := err.(*minic.CompileError)
		if len(compileErr.Expected) == 0 {
			t.Fatalf("expected a non-empty Expected list")
		}
		found := false
		for _, k := range compileErr.Expected {
			if k == token.Identifier {
				found = true
			}
		}
		if !found {
			t.Errorf("expected Identifier among the expected kinds, got %v", compileErr.Expected)
		}
	})

	t.Run("unexpected eof points past the end of input", func(t *testing.T) {
		_, err := minic.Compile("return")
		compileErr := err.(*minic.CompileError)
		if compileErr.Kind != minic.UnexpectedTokenKind && compileErr.Kind != minic.UnexpectedEOFKind {
			t.Errorf("expected an unexpected-token or unexpected-eof error, got %v", compileErr.Kind)
		}
		if compileErr.IndexStart != len("return") {
			t.Errorf("expected the error at position %d, got %d", len("return"), compileErr.IndexStart)
		}
	})
}
