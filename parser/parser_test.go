package parser

import (
	"testing"

	"nilan/ast"
	"nilan/lexer"
	"nilan/token"
)

func parseSource(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("lexer error for %q: %v", source, err)
	}
	stmts, errs := Make(toks).Parse()
	if len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", source, errs)
	}
	return stmts
}

func TestParseLetDeclaration(t *testing.T) {
	stmts := parseSource(t, "let x = 1;")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	let, ok := stmts[0].(ast.Let)
	if !ok {
		t.Fatalf("expected ast.Let, got %T", stmts[0])
	}
	if let.Name.Lexeme != "x" {
		t.Fatalf("expected name 'x', got %q", let.Name.Lexeme)
	}
	if _, ok := let.Value.(ast.IntegerLiteral); !ok {
		t.Fatalf("expected IntegerLiteral value, got %T", let.Value)
	}
}

func TestParseMutationStatement(t *testing.T) {
	stmts := parseSource(t, "x += 1;")
	mut, ok := stmts[0].(ast.Mut)
	if !ok {
		t.Fatalf("expected ast.Mut, got %T", stmts[0])
	}
	if mut.Op.TokenType != token.ADD_ASSIGN {
		t.Fatalf("expected ADD_ASSIGN operator, got %v", mut.Op.TokenType)
	}
}

func TestParseIfElse(t *testing.T) {
	stmts := parseSource(t, "if x { y = 1; } else { y = 2; }")
	ifStmt, ok := stmts[0].(ast.If)
	if !ok {
		t.Fatalf("expected ast.If, got %T", stmts[0])
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected else block")
	}
	if len(ifStmt.Then.Stmts) != 1 {
		t.Fatalf("expected 1 then statement, got %d", len(ifStmt.Then.Stmts))
	}
}

func TestParseFunctionCall(t *testing.T) {
	stmts := parseSource(t, "println(1, 2);")
	exprStmt, ok := stmts[0].(ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ast.ExprStmt, got %T", stmts[0])
	}
	call, ok := exprStmt.Expr.(ast.FunctionCall)
	if !ok {
		t.Fatalf("expected ast.FunctionCall, got %T", exprStmt.Expr)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
}

func TestParseFnDeclaration(t *testing.T) {
	stmts := parseSource(t, "fn add(a, b) { return a + b; }")
	fn, ok := stmts[0].(ast.Fn)
	if !ok {
		t.Fatalf("expected ast.Fn, got %T", stmts[0])
	}
	if fn.Name.Lexeme != "add" {
		t.Fatalf("expected name 'add', got %q", fn.Name.Lexeme)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Stmts))
	}
	if _, ok := fn.Body.Stmts[0].(ast.Return); !ok {
		t.Fatalf("expected ast.Return, got %T", fn.Body.Stmts[0])
	}
}

func TestParseGroupingReturnsInnerExpr(t *testing.T) {
	stmts := parseSource(t, "let x = (1 + 2) * 3;")
	let := stmts[0].(ast.Let)
	binary, ok := let.Value.(ast.Binary)
	if !ok {
		t.Fatalf("expected ast.Binary, got %T", let.Value)
	}
	if _, ok := binary.Left.(ast.Binary); !ok {
		t.Fatalf("expected left operand to be the un-wrapped grouped Binary, got %T", binary.Left)
	}
}

func TestParseReservedOperatorRejected(t *testing.T) {
	toks, err := lexer.New("let x = 1 & 2;").Scan()
	if err != nil {
		t.Fatalf("unexpected lexer error: %v", err)
	}
	_, parseErrs := Make(toks).Parse()
	if len(parseErrs) == 0 {
		t.Fatalf("expected a parse error for reserved operator '&'")
	}
}
