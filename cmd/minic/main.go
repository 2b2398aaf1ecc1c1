package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"minic.dev/compiler/pkg/minic"
)

var Description = strings.ReplaceAll(`
minic compiles a small C-like expression and control-flow language into
x86-64 assembly (Intel syntax, GNU assembler directives). Source is read
from standard input (or from the optional positional file argument) and
the generated assembly is written to standard output.
`, "\n", " ")

var Minic = cli.New(Description).
	WithArg(cli.NewArg("input", "Source file to compile; reads standard input if omitted").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("debug", "Enables verbose per-stage tracing (same as MINIC_DEBUG)").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if _, enabled := options["debug"]; enabled {
		os.Setenv("MINIC_DEBUG", "1")
	}
	minic.EnableDebugFromEnv()

	source, err := readSource(args)
	if err != nil {
		fmt.Printf("ERROR: Unable to read source: %s\n", err)
		return -1
	}

	assembly, err := minic.Compile(source)
	if err != nil {
		fmt.Print(err.Error())
		return -1
	}

	fmt.Println(assembly)
	return 0
}

func readSource(args []string) (string, error) {
	if len(args) >= 1 && args[0] != "" {
		content, err := os.ReadFile(args[0])
		return string(content), err
	}

	content, err := io.ReadAll(os.Stdin)
	return string(content), err
}

func main() { os.Exit(Minic.Run(os.Args, os.Stdout)) }
