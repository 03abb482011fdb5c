package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/ast"
	"nilan/compiler"
)

// disasmCmd implements the "disasm" subcommand: compile a source file and
// print its instruction listing, one line per instruction, through
// compiler.Disassemble.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a source file and print its disassembly" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile <file> and print its bytecode disassembly to stdout.
`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "EARL: [UsageError] no source file provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "EARL: [IOError] %v\n", err)
		return subcommands.ExitFailure
	}

	statements, ok := compileSource(string(data))
	if !ok {
		return subcommands.ExitFailure
	}

	bytecode, err := compiler.New().Compile(ast.Program{Statements: statements})
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err))
		return subcommands.ExitFailure
	}

	fmt.Println(compiler.Disassemble(bytecode.Instructions))
	return subcommands.ExitSuccess
}
