package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/ast"
	"nilan/compiler"
	"nilan/lexer"
	"nilan/parser"
	"nilan/vm"
)

// runCmd implements the "run" subcommand: compile a source file to
// bytecode and execute it on a fresh VM.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and execute an EARL source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and execute EARL source from <file>.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if _, err := vm.New().Run(bytecode); err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// compileSource lexes and parses source, printing every diagnostic (per
// spec.md §7's "EARL: [KIND] message" line) on failure. Shared by
// run/emit/disasm so all three report lex/parse failures identically.
func compileSource(source string) ([]ast.Stmt, bool) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnosticWithKind("LexError", err.Error()))
		return nil, false
	}

	statements, errs := parser.Make(tokens).Parse()
	if len(errs) > 0 {
		for _, perr := range errs {
			fmt.Fprintln(os.Stderr, diagnostic(perr))
		}
		return nil, false
	}
	return statements, true
}
