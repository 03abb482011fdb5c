package compiler

import (
	"fmt"
	"strings"
	"testing"

	"nilan/ast"
	"nilan/compile"
	"nilan/lexer"
	"nilan/parser"
	"nilan/value"
)

func compileSource(t *testing.T, source string) Bytecode {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, errs := parser.Make(toks).Parse()
	if len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	bytecode, err := New().Compile(ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return bytecode
}

// TestScenarioS1 mirrors spec.md §8 scenario S1.
func TestScenarioS1(t *testing.T) {
	bytecode := compileSource(t, "let x = 1 + 2 * 3;")

	wantConstants := []int32{1, 2, 3}
	if len(bytecode.Constants) != len(wantConstants) {
		t.Fatalf("expected %d constants, got %d", len(wantConstants), len(bytecode.Constants))
	}
	for i, want := range wantConstants {
		if bytecode.Constants[i].Int != want {
			t.Errorf("constant %d: expected %d, got %d", i, want, bytecode.Constants[i].Int)
		}
	}

	// CONST 0, CONST 1, CONST 2, MUL, ADD, DEF_GLOBAL g(=builtin count), HALT
	builtinCount := len(bytecode.Globals) - 1
	want := []byte{
		byte(OP_CONST), 0,
		byte(OP_CONST), 1,
		byte(OP_CONST), 2,
		byte(OP_MUL),
		byte(OP_ADD),
		byte(OP_DEF_GLOBAL), byte(builtinCount),
		byte(OP_HALT),
	}
	if len(bytecode.Instructions) != len(want) {
		t.Fatalf("expected %d instruction bytes, got %d: %v", len(want), len(bytecode.Instructions), bytecode.Instructions)
	}
	for i := range want {
		if bytecode.Instructions[i] != want[i] {
			t.Errorf("byte %d: expected %d, got %d", i, want[i], bytecode.Instructions[i])
		}
	}
}

func TestLetDuplicateIsNameError(t *testing.T) {
	toks, err := lexer.New("let x = 1; let x = 2;").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, errs := parser.Make(toks).Parse()
	if len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	_, compileErr := New().Compile(ast.Program{Statements: stmts})
	if compileErr == nil {
		t.Fatalf("expected a NameError for duplicate 'let x'")
	}
	want := "EARL: [NameError] identifier `x` is already defined"
	if compileErr.Error() != want {
		t.Fatalf("expected %q, got %q", want, compileErr.Error())
	}
}

func TestUndeclaredIdentifierIsNameError(t *testing.T) {
	toks, err := lexer.New("y + 1;").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, errs := parser.Make(toks).Parse()
	if len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	_, compileErr := New().Compile(ast.Program{Statements: stmts})
	if compileErr == nil {
		t.Fatalf("expected a NameError for undeclared 'y'")
	}
	want := "EARL: [NameError] identifier `y` was not defined"
	if compileErr.Error() != want {
		t.Fatalf("expected %q, got %q", want, compileErr.Error())
	}
}

func TestMutationDesugarsToLoadComputeSet(t *testing.T) {
	bytecode := compileSource(t, "let x = 1; x = x + 41;")
	// second statement's instructions: LOAD_GLOBAL g, CONST k, ADD, SET_GLOBAL g
	foundLoad, foundSet := false, false
	for i := 0; i < len(bytecode.Instructions); i++ {
		switch Opcode(bytecode.Instructions[i]) {
		case OP_LOAD_GLOBAL:
			foundLoad = true
			i++
		case OP_SET_GLOBAL:
			foundSet = true
			i++
		case OP_CONST, OP_DEF_GLOBAL:
			i++
		}
	}
	if !foundLoad || !foundSet {
		t.Fatalf("expected both LOAD_GLOBAL and SET_GLOBAL in compound mutation, instructions: %v", bytecode.Instructions)
	}
}

func TestStringLiteralConstant(t *testing.T) {
	bytecode := compileSource(t, `"hel" + "lo";`)
	if len(bytecode.Constants) != 2 {
		t.Fatalf("expected 2 string constants, got %d", len(bytecode.Constants))
	}
	if bytecode.Constants[0].Tag != value.TagObject || bytecode.Constants[0].ToCstr() != "hel" {
		t.Fatalf("expected first constant 'hel', got %v", bytecode.Constants[0])
	}
}

func TestIfElseEmitsJumpOpcodes(t *testing.T) {
	bytecode := compileSource(t, "let flag = 1; if flag { flag = 2; } else { flag = 3; }")
	sawJumpIfFalse, sawJump := false, false
	for _, b := range bytecode.Instructions {
		if Opcode(b) == OP_JUMP_IF_FALSE {
			sawJumpIfFalse = true
		}
		if Opcode(b) == OP_JUMP {
			sawJump = true
		}
	}
	if !sawJumpIfFalse || !sawJump {
		t.Fatalf("expected both JUMP_IF_FALSE and JUMP in if/else, instructions: %v", bytecode.Instructions)
	}
}

func TestRejectedOperatorIsSemanticError(t *testing.T) {
	toks, err := lexer.New("let x = 1 & 2;").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, errs := parser.Make(toks).Parse()
	if len(errs) != 0 {
		// the parser already rejects an infix '&' (the statement cannot reach
		// its ';' terminator) - either stage rejecting is acceptable.
		return
	}
	_, compileErr := New().Compile(ast.Program{Statements: stmts})
	if compileErr == nil {
		t.Fatalf("expected a compile-time rejection of '&'")
	}
}

func TestBuiltinsPreloadedAsGlobalsInCanonicalOrder(t *testing.T) {
	bytecode := compileSource(t, "let x = 1;")
	if len(bytecode.Globals) < 2 {
		t.Fatalf("expected at least println/print preloaded plus 'x', got %v", bytecode.Globals)
	}
	if bytecode.Globals[0] != "println" || bytecode.Globals[1] != "print" {
		t.Fatalf("expected builtins preloaded in canonical order, got %v", bytecode.Globals[:2])
	}
	if bytecode.Globals[len(bytecode.Globals)-1] != "x" {
		t.Fatalf("expected 'x' appended last, got %v", bytecode.Globals)
	}
}

// TestTooManyGlobalsIsNameError mirrors TestScenarioS8's overflow shape,
// but for the global-symbol list rather than the operand stack: once the
// builtin prelude plus every `let` reaches the one-byte operand's 256-entry
// ceiling, the next `let` must be rejected rather than silently wrapping
// its DEF_GLOBAL index back to 0 and aliasing an earlier global.
func TestTooManyGlobalsIsNameError(t *testing.T) {
	var source strings.Builder
	for i := 0; i < 256; i++ {
		fmt.Fprintf(&source, "let g%d = %d;\n", i, i)
	}

	toks, err := lexer.New(source.String()).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, errs := parser.Make(toks).Parse()
	if len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	_, compileErr := New().Compile(ast.Program{Statements: stmts})
	if compileErr == nil {
		t.Fatalf("expected a NameError once builtins plus 256 lets exhaust the global list")
	}
	if _, ok := compileErr.(compile.NameError); !ok {
		t.Fatalf("expected compile.NameError, got %v (%T)", compileErr, compileErr)
	}
}
