// Package interpreter is a tree-walking oracle over nilan/ast, evaluating
// directly against nilan/value rather than through nilan/compiler+nilan/vm.
// It exists for compiler and vm package tests: generate or hand-write an
// ast.Program, evaluate it both ways, and assert the two agree - the same
// role a tree-walker traditionally plays as a cross-check for a faster,
// harder-to-read bytecode engine. It is not a second execution path for
// EARL programs; cmd_run.go always goes through compiler+vm.
package interpreter

import (
	"fmt"

	"nilan/ast"
	"nilan/builtin"
	"nilan/compile"
	"nilan/token"
	"nilan/value"
)

// TreeWalkInterpreter executes parsed statements and evaluates expressions
// directly against value.Value, short-circuiting &&/|| exactly like
// ast_compiler.go's compileAnd/compileOr do.
type TreeWalkInterpreter struct {
	environment *Environment
}

// Make constructs an interpreter with every builtin.Registry entry already
// bound, mirroring vm.VM.seedBuiltins so a oracle run and a compiled run
// start from the same global namespace.
func Make() *TreeWalkInterpreter {
	env := MakeEnvironment()
	for _, entry := range builtin.Registry {
		fn := entry.Fn
		env.define(entry.Name, value.BuiltinRef(&value.BuiltinFunction{Name: entry.Name, Fn: fn}))
	}
	return &TreeWalkInterpreter{environment: env}
}

// Interpret runs every statement in order and returns the value of the last
// top-level ExprStmt evaluated (Unit if there is none), plus any error
// encountered. This equals vm.VM.Run's "top of stack at HALT" result when
// the program ends with a top-level expression statement; the stack is not
// modeled, so an ExprStmt nested in a block, or a trailing mutation (whose
// SET_GLOBAL leaves Unit on the VM stack), does not change the result here.
func (i *TreeWalkInterpreter) Interpret(statements []ast.Stmt) (result value.Value, err error) {
	result = value.Unit()
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	for _, stmt := range statements {
		if v, ok := i.executeStmt(stmt); ok {
			result = v
		}
	}
	return result, nil
}

// Globals exposes the final global bindings for test assertions, mirroring
// how vm_test.go reads *vm.VM.globals directly.
func (i *TreeWalkInterpreter) Globals() map[string]value.Value {
	return i.environment.values
}

// executeStmt runs one statement and reports the value it produced, if any
// (only ExprStmt produces a value that becomes the program result).
func (i *TreeWalkInterpreter) executeStmt(stmt ast.Stmt) (value.Value, bool) {
	switch s := stmt.(type) {
	case ast.ExprStmt:
		return i.evaluate(s.Expr), true
	default:
		stmt.Accept(i)
		return value.Value{}, false
	}
}

func (i *TreeWalkInterpreter) executeStatements(statements []ast.Stmt) {
	for _, s := range statements {
		i.executeStmt(s)
	}
}

func (i *TreeWalkInterpreter) VisitLet(stmt ast.Let) any {
	if i.environment.has(stmt.Name.Lexeme) {
		panic(compile.NameError{Message: fmt.Sprintf("identifier `%s` is already defined", stmt.Name.Lexeme)})
	}
	i.environment.define(stmt.Name.Lexeme, i.evaluate(stmt.Value))
	return nil
}

// VisitFn reserves the name in the flat globals without evaluating a body,
// matching ast_compiler.go's VisitFn: user-defined function bodies are an
// explicit non-goal, only the declared name is observable.
func (i *TreeWalkInterpreter) VisitFn(stmt ast.Fn) any {
	if i.environment.has(stmt.Name.Lexeme) {
		panic(compile.NameError{Message: fmt.Sprintf("identifier `%s` is already defined", stmt.Name.Lexeme)})
	}
	i.environment.define(stmt.Name.Lexeme, value.Unit())
	return nil
}

// VisitBlock runs the block's statements against the same flat environment
// as its enclosing scope - the VM has no runtime notion of nested scopes,
// only the compile-time shadowing check in compile.Context, so the oracle
// does not push a child Environment here.
func (i *TreeWalkInterpreter) VisitBlock(stmt ast.Block) any {
	i.executeStatements(stmt.Stmts)
	return nil
}

func (i *TreeWalkInterpreter) VisitMut(stmt ast.Mut) any {
	ident, ok := stmt.Left.(ast.Identifier)
	if !ok {
		panic(CreateRuntimeError("assignment target must be an identifier"))
	}
	current, ok := i.environment.get(ident.Name.Lexeme)
	if !ok {
		panic(compile.NameError{Message: fmt.Sprintf("identifier `%s` was not defined", ident.Name.Lexeme)})
	}
	rhs := i.evaluate(stmt.Right)

	var next value.Value
	switch stmt.Op.TokenType {
	case token.ASSIGN:
		next = rhs
	case token.ADD_ASSIGN:
		next = mustBinary(current.Add(rhs))
	case token.SUB_ASSIGN:
		next = mustBinary(current.Sub(rhs))
	case token.MUL_ASSIGN:
		next = mustBinary(current.Mul(rhs))
	case token.DIV_ASSIGN:
		next = mustBinary(current.Div(rhs))
	default:
		panic(CreateRuntimeError(fmt.Sprintf("operator '%s' is not a valid mutation operator", stmt.Op.TokenType)))
	}
	if err := current.Mutate(next); err != nil {
		panic(err)
	}
	i.environment.define(ident.Name.Lexeme, current)
	return nil
}

func (i *TreeWalkInterpreter) VisitExprStmt(stmt ast.ExprStmt) any {
	return i.evaluate(stmt.Expr)
}

// VisitReturn is reserved alongside Fn; evaluated for its side effects only,
// since no call frame exists to receive the value.
func (i *TreeWalkInterpreter) VisitReturn(stmt ast.Return) any {
	i.evaluate(stmt.Expr)
	return nil
}

func (i *TreeWalkInterpreter) VisitIf(stmt ast.If) any {
	cond := i.evaluate(stmt.Cond)
	truthy, err := cond.IsTruthy()
	if err != nil {
		panic(err)
	}
	if truthy {
		i.executeStatements(stmt.Then.Stmts)
	} else if stmt.Else != nil {
		i.executeStatements(stmt.Else.Stmts)
	}
	return nil
}

// VisitBinary evaluates a binary expression, short-circuiting && and ||
// exactly like compiler/ast_compiler.go's compileAnd/compileOr: the right
// operand is never evaluated when the left side already decides the result.
func (i *TreeWalkInterpreter) VisitBinary(binary ast.Binary) any {
	op := binary.Operator.TokenType

	if op == token.AND || op == token.OR {
		left := i.evaluate(binary.Left)
		truthy, err := left.IsTruthy()
		if err != nil {
			panic(err)
		}
		if op == token.AND && !truthy {
			return left
		}
		if op == token.OR && truthy {
			return left
		}
		return i.evaluate(binary.Right)
	}

	left := i.evaluate(binary.Left)
	right := i.evaluate(binary.Right)

	switch op {
	case token.ADD:
		return mustBinary(left.Add(right))
	case token.SUB:
		return mustBinary(left.Sub(right))
	case token.MUL:
		return mustBinary(left.Mul(right))
	case token.DIV:
		return mustBinary(left.Div(right))
	case token.MOD:
		return mustBinary(left.Mod(right))
	case token.EQUAL_EQUAL:
		return value.Bool(left.Eq(right))
	case token.NOT_EQUAL:
		return value.Bool(left.Neq(right))
	case token.LESS, token.LARGER, token.LESS_EQUAL, token.LARGER_EQUAL:
		return i.compare(op, left, right)
	default:
		panic(CreateRuntimeError(fmt.Sprintf("operator '%s' is not supported", op)))
	}
}

func (i *TreeWalkInterpreter) compare(op token.TokenType, left, right value.Value) value.Value {
	if left.Tag != value.TagInteger || right.Tag != value.TagInteger {
		panic(value.TypeError{Message: fmt.Sprintf("ordered comparison is not supported between %s and %s", left.Tag, right.Tag)})
	}
	switch op {
	case token.LESS:
		return value.Bool(left.Int < right.Int)
	case token.LARGER:
		return value.Bool(left.Int > right.Int)
	case token.LESS_EQUAL:
		return value.Bool(left.Int <= right.Int)
	case token.LARGER_EQUAL:
		return value.Bool(left.Int >= right.Int)
	}
	panic(CreateRuntimeError(fmt.Sprintf("operator '%s' is not a comparison", op)))
}

func (i *TreeWalkInterpreter) VisitUnary(unary ast.Unary) any {
	operand := i.evaluate(unary.Operand)
	switch unary.Operator.TokenType {
	case token.SUB:
		return mustBinary(value.Int32(0).Sub(operand))
	case token.BANG:
		truthy, err := operand.IsTruthy()
		if err != nil {
			panic(err)
		}
		return value.Bool(!truthy)
	default:
		panic(CreateRuntimeError(fmt.Sprintf("operator '%s' is not supported for unary operations", unary.Operator.TokenType)))
	}
}

func (i *TreeWalkInterpreter) VisitIdentifier(term ast.Identifier) any {
	v, ok := i.environment.get(term.Name.Lexeme)
	if !ok {
		panic(compile.NameError{Message: fmt.Sprintf("identifier `%s` was not defined", term.Name.Lexeme)})
	}
	return v
}

func (i *TreeWalkInterpreter) VisitIntegerLiteral(term ast.IntegerLiteral) any {
	return value.Int32(term.Value.Literal.(int32))
}

func (i *TreeWalkInterpreter) VisitStringLiteral(term ast.StringLiteral) any {
	return value.NewString(term.Value.Literal.(string))
}

func (i *TreeWalkInterpreter) VisitCharacterLiteral(term ast.CharacterLiteral) any {
	return value.Int32(term.Value.Literal.(rune))
}

// VisitFunctionCall dispatches only to BuiltinFunctionRef values, the only
// callable tag - identical restriction to vm.VM.execCall.
func (i *TreeWalkInterpreter) VisitFunctionCall(term ast.FunctionCall) any {
	callee := i.evaluate(term.Callee)
	args := make([]value.Value, len(term.Args))
	for idx, arg := range term.Args {
		args[idx] = i.evaluate(arg)
	}
	if callee.Tag != value.TagBuiltinFunctionRef {
		panic(value.TypeError{Message: fmt.Sprintf("value of type %s is not callable", callee.Tag)})
	}
	return callee.Builtin.Fn(args)
}

func (i *TreeWalkInterpreter) evaluate(expr ast.Expr) value.Value {
	return expr.Accept(i).(value.Value)
}

func mustBinary(v value.Value, err error) value.Value {
	if err != nil {
		panic(err)
	}
	return v
}
