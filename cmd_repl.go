package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"nilan/ast"
	"nilan/compiler"
	"nilan/lexer"
	"nilan/parser"
	"nilan/token"
	"nilan/vm"
)

// replCmd implements the "repl" subcommand: an interactive compile-and-run
// loop over readline, keeping every declared global alive across lines.
type replCmd struct {
	dumpAST bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive EARL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive EARL session. Ctrl-D or "exit" quits.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "print each parsed statement's AST as JSON before running it")
	f.BoolVar(&cmd.dumpAST, "da", false, "shorthand for dumpAST")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to EARL!")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "EARL: [IOError] %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	astCompiler := compiler.New()
	machine := vm.NewREPL()
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, lexErr := lexer.New(source).Scan()
		if lexErr != nil {
			fmt.Println(diagnosticWithKind("LexError", lexErr.Error()))
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		statements, parseErrs := parser.Make(tokens).Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, perr := range parseErrs {
				fmt.Println(diagnostic(perr))
			}
			buffer.Reset()
			continue
		}

		if cmd.dumpAST {
			if text, err := parser.PrintASTJSON(statements); err == nil {
				fmt.Println(text)
			}
		}

		bytecode, compileErr := astCompiler.Compile(ast.Program{Statements: statements})
		if compileErr != nil {
			fmt.Println(diagnostic(compileErr))
			buffer.Reset()
			continue
		}

		result, runErr := machine.Eval(bytecode)
		if runErr != nil {
			fmt.Println(diagnostic(runErr))
			buffer.Reset()
			continue
		}
		fmt.Println(result.ToCstr())
		buffer.Reset()
	}
}

// isInputReady reports whether buffered input is a complete statement:
// braces balanced and the last non-EOF token isn't one that demands a
// continuation (a trailing operator, an unclosed "if", etc).
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.DIV_ASSIGN,
		token.ADD, token.SUB, token.MUL, token.DIV, token.MOD,
		token.BANG, token.EQUAL_EQUAL, token.NOT_EQUAL,
		token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL,
		token.AND, token.OR,
		token.COMMA, token.LPA, token.LCUR,
		token.IF, token.ELSE, token.FN, token.RETURN, token.LET:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF reports whether every parse error is a syntax error
// positioned at the EOF token - the REPL's signal that the user simply
// hasn't finished typing yet, rather than that the input is malformed.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, perr := range parseErrs {
		syntaxErr, ok := perr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
