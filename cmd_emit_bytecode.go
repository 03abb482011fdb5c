package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"nilan/ast"
	"nilan/compiler"
)

// emitBytecodeCmd implements the "emit" subcommand: compile a source file
// and write its encoded bytecode, as hexadecimal text, to a sibling .nic
// file.
type emitBytecodeCmd struct {
	outPath string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Compile a source file and write its bytecode to a .nic file"
}
func (*emitBytecodeCmd) Usage() string {
	return `emit <file>:
  Compile <file> and write the encoded instruction stream, as hexadecimal
  text, to <file-without-extension>.nic (or -out, if given).
`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outPath, "out", "", "output path for the .nic file (defaults to <file-without-extension>.nic)")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "EARL: [UsageError] no source file provided")
		return subcommands.ExitUsageError
	}
	sourcePath := args[0]

	data, err := os.ReadFile(sourcePath)
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

	outPath := cmd.outPath
	if outPath == "" {
		outPath = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".nic"
	}
	encoded := hex.EncodeToString(bytecode.Instructions)
	if err := os.WriteFile(outPath, []byte(encoded+"\n"), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "EARL: [IOError] %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("wrote %d bytes of bytecode to %s\n", len(bytecode.Instructions), outPath)
	return subcommands.ExitSuccess
}
