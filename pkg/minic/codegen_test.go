package minic_test

import (
	"regexp"
	"strings"
	"testing"

	"minic.dev/compiler/pkg/ast"
	"minic.dev/compiler/pkg/minic"
)

func compileOrFail(t *testing.T, source string) string {
	t.Helper()
	asm, err := minic.Compile(source)
	if err != nil {
		t.Fatalf("unexpected compile error for %q: %v", source, err)
	}
	return asm
}

func TestCodeGeneratorPrologueEpilogue(t *testing.T) {
	asm := compileOrFail(t, "42;")

	wantPrefix := ".intel_syntax noprefix\n.global main\nmain:\n    push rbp\n    mov rbp, rsp\n    sub rsp, 208\n"
	if !strings.HasPrefix(asm, wantPrefix) {
		t.Errorf("expected assembly to start with the fixed prologue, got:\n%s", asm)
	}

	wantSuffix := "    mov rsp, rbp\n    pop rbp\n    ret\n"
	if !strings.HasSuffix(asm, wantSuffix) {
		t.Errorf("expected assembly to end with the fixed epilogue, got:\n%s", asm)
	}
}

func TestCodeGeneratorIndentation(t *testing.T) {
	asm := compileOrFail(t, "if (1 < 2) return 7; return 9;")
	for _, line := range strings.Split(strings.TrimRight(asm, "\n"), "\n") {
		if line == "" {
			continue
		}
		if trimmed := strings.TrimLeft(line, " "); strings.HasPrefix(trimmed, ".") || trimmed == "main:" {
			if strings.HasPrefix(line, " ") {
				t.Errorf("directive/label line should start at column zero: %q", line)
			}
		} else if !strings.HasPrefix(line, "    ") {
			t.Errorf("body instruction should be indented 4 spaces: %q", line)
		}
	}
}

func TestCodeGeneratorScenarios(t *testing.T) {
	t.Run("literal statement pushes then discards", func(t *testing.T) {
		asm := compileOrFail(t, "42;")
		if !strings.Contains(asm, "push 42") || !strings.Contains(asm, "pop rax") {
			t.Errorf("expected push 42 / pop rax, got:\n%s", asm)
		}
	})

	t.Run("assignment emits address, store, then reload", func(t *testing.T) {
		asm := compileOrFail(t, "a = 3; a + 4;")
		if !strings.Contains(asm, "mov [rax], rdi") {
			t.Errorf("expected a store through the lvalue address, got:\n%s", asm)
		}
		if !strings.Contains(asm, "mov rax, [rax]") {
			t.Errorf("expected a reload of the local variable, got:\n%s", asm)
		}
	})

	t.Run("if emits a conditional jump and an end label", func(t *testing.T) {
		asm := compileOrFail(t, "if (1 < 2) return 7; return 9;")
		if !strings.Contains(asm, "je .Lend1") {
			t.Errorf("expected a je to .Lend1, got:\n%s", asm)
		}
		if !strings.Contains(asm, ".Lend1:") {
			t.Errorf("expected label .Lend1:, got:\n%s", asm)
		}
	})

	t.Run("while emits begin/end labels and a backward jump", func(t *testing.T) {
		asm := compileOrFail(t, "i = 0; while (i < 10) i = i + 1; return i;")
		for _, want := range []string{".Lbegin1:", "je .Lend1", "jmp .Lbegin1", ".Lend1:"} {
			if !strings.Contains(asm, want) {
				t.Errorf("expected %q in:\n%s", want, asm)
			}
		}
	})

	t.Run("call pops arguments into the System V registers in order", func(t *testing.T) {
		asm := compileOrFail(t, "foo(1, 2, 3);")
		iRdi := strings.Index(asm, "pop rdi")
		iRsi := strings.Index(asm, "pop rsi")
		iRdx := strings.Index(asm, "pop rdx")
		iCall := strings.Index(asm, "call foo")
		if iRdi < 0 || iRsi < 0 || iRdx < 0 || iCall < 0 {
			t.Fatalf("missing expected instructions in:\n%s", asm)
		}
		if !(iRdi < iRsi && iRsi < iRdx && iRdx < iCall) {
			t.Errorf("expected pop rdi, rsi, rdx in order before call, got:\n%s", asm)
		}
	})
}

func TestCodeGeneratorLabelMonotonicityInOutput(t *testing.T) {
	asm := compileOrFail(t, `
		if (1 < 2) return 1;
		if (1 < 2) return 2;
		if (1 < 2) return 3;
	`)
	matches := regexp.MustCompile(`\.Lend(\d+):`).FindAllStringSubmatch(asm, -1)
	if len(matches) != 3 {
		t.Fatalf("expected 3 end labels, got %d in:\n%s", len(matches), asm)
	}
	for i, m := range matches {
		want := []string{"1", "2", "3"}[i]
		if m[1] != want {
			t.Errorf("label %d: expected suffix %s, got %s", i, want, m[1])
		}
	}
}

func TestCodeGeneratorLvalueAddressPanicsOnNonLocalVariable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a non-local-variable lvalue address request")
		}
	}()

	cg := minic.NewCodeGenerator()
	cg.Generate(ast.Block{Statements: []ast.Statement{
		ast.BinaryExpr{Operator: ast.OpAssign, Lhs: ast.Integer{Value: 1}, Rhs: ast.Integer{Value: 2}},
	}})
}

func TestCodeGeneratorCallPanicsOnTooManyArguments(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a call with more than six arguments")
		}
	}()

	args := make([]ast.Expression, 7)
	for i := range args {
		args[i] = ast.Integer{Value: int32(i)}
	}

	cg := minic.NewCodeGenerator()
	cg.Generate(ast.Block{Statements: []ast.Statement{
		ast.FunctionCall{Identifier: "foo", Arguments: args},
	}})
}
