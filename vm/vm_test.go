package vm

import (
	"testing"

	"nilan/ast"
	"nilan/compiler"
	"nilan/lexer"
	"nilan/parser"
	"nilan/value"
)

func runSource(t *testing.T, source string) (value.Value, *VM, error) {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, errs := parser.Make(toks).Parse()
	if len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	bytecode, err := compiler.New().Compile(ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	machine := New()
	result, runErr := machine.Run(bytecode)
	return result, machine, runErr
}

func globalValue(t *testing.T, machine *VM, name string) value.Value {
	t.Helper()
	identifier, ok := machine.globals[name]
	if !ok {
		t.Fatalf("expected global %q to be defined", name)
	}
	return identifier.Value
}

// TestScenarioS1 mirrors spec.md §8 scenario S1.
func TestScenarioS1(t *testing.T) {
	_, machine, err := runSource(t, "let x = 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x := globalValue(t, machine, "x")
	if x.Int != 7 {
		t.Fatalf("expected x = 7, got %d", x.Int)
	}
}

// TestScenarioS2 mirrors spec.md §8 scenario S2.
func TestScenarioS2(t *testing.T) {
	result, machine, err := runSource(t, "let a = 10; let b = 20; a + b;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Int != 30 {
		t.Fatalf("expected result 30, got %d", result.Int)
	}
	if globalValue(t, machine, "a").Int != 10 {
		t.Fatalf("expected a = 10")
	}
	if globalValue(t, machine, "b").Int != 20 {
		t.Fatalf("expected b = 20")
	}
}

// TestScenarioS6 mirrors spec.md §8 scenario S6.
func TestScenarioS6(t *testing.T) {
	_, machine, err := runSource(t, "let x = 1; x = x + 41;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if globalValue(t, machine, "x").Int != 42 {
		t.Fatalf("expected x = 42, got %d", globalValue(t, machine, "x").Int)
	}
}

// TestScenarioS7 mirrors spec.md §8 scenario S7.
func TestScenarioS7(t *testing.T) {
	result, _, err := runSource(t, `"hel" + "lo";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToCstr() != "hello" {
		t.Fatalf("expected 'hello', got %q", result.ToCstr())
	}
}

// TestScenarioS8 mirrors spec.md §8 scenario S8: overflowing the 512-slot
// stack is a StackError.
func TestScenarioS8(t *testing.T) {
	bytecode := compiler.Bytecode{Constants: []value.Value{value.Int32(1)}}
	for i := 0; i < stackSize+1; i++ {
		bytecode.Instructions = append(bytecode.Instructions, compiler.MakeInstruction(compiler.OP_CONST, 0)...)
	}
	bytecode.Instructions = append(bytecode.Instructions, byte(compiler.OP_HALT))

	_, err := New().Run(bytecode)
	if _, ok := err.(StackError); !ok {
		t.Fatalf("expected StackError, got %v (%T)", err, err)
	}
}

// TestScenarioS9 mirrors spec.md §8 scenario S9: division by zero aborts
// before DEF_GLOBAL runs, so x never ends up in the globals map.
func TestScenarioS9(t *testing.T) {
	_, machine, err := runSource(t, "let x = 1 / 0;")
	if err == nil {
		t.Fatalf("expected a division-by-zero error")
	}
	if _, ok := machine.globals["x"]; ok {
		t.Fatalf("expected x to never be defined after a division-by-zero abort")
	}
}

func TestHaltWithEmptyStackResultsInUnit(t *testing.T) {
	bytecode := compiler.Bytecode{Instructions: []byte{byte(compiler.OP_HALT)}}
	result, err := New().Run(bytecode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tag != value.TagUnit {
		t.Fatalf("expected Unit, got %v", result.Tag)
	}
}

func TestIfElseBranching(t *testing.T) {
	_, machine, err := runSource(t, "let x = 0; if 1 { x = 10; } else { x = 20; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if globalValue(t, machine, "x").Int != 10 {
		t.Fatalf("expected the then-branch to run, got x = %d", globalValue(t, machine, "x").Int)
	}

	_, machine, err = runSource(t, "let x = 0; if 0 { x = 10; } else { x = 20; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if globalValue(t, machine, "x").Int != 20 {
		t.Fatalf("expected the else-branch to run, got x = %d", globalValue(t, machine, "x").Int)
	}
}

func TestComparisonOperators(t *testing.T) {
	result, _, err := runSource(t, "1 < 2;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tag != value.TagBoolean || !result.Bool {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestLogicalAndShortCircuits(t *testing.T) {
	result, _, err := runSource(t, "0 && (1 / 0);")
	if err != nil {
		t.Fatalf("expected short-circuit to avoid the division by zero, got error: %v", err)
	}
	if result.Int != 0 {
		t.Fatalf("expected the falsy left operand, got %v", result)
	}
}

func TestBuiltinCallDispatch(t *testing.T) {
	result, _, err := runSource(t, "println(1, 2, 3);")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tag != value.TagUnit {
		t.Fatalf("expected println to return Unit, got %v", result.Tag)
	}
}
