package compiler

import (
	"fmt"

	"nilan/ast"
	"nilan/builtin"
	"nilan/compile"
	"nilan/token"
	"nilan/value"
)

// maxCallArgs bounds CALL's variable-arity operand byte, per spec.md §4.4's
// "bounded by a compile-time maximum."
const maxCallArgs = 255

// rejectedOperators is the rich-but-uncompiled operator set the lexer/parser
// accept but the compiler rejects in an expression, per spec.md's Open
// Questions resolution ("compile-time-reject their use until semantics are
// specified").
var rejectedOperators = map[token.TokenType]bool{
	token.AMP: true, token.PIPE: true, token.CARET: true, token.DOTDOT: true,
	token.COLONCOLON: true, token.SHL: true, token.SHR: true,
	token.STARSTAR: true, token.PIPE_GT: true,
}

// ASTCompiler walks a Program's statement/expression tree in source order,
// emitting a flat bytecode stream and seeding the constant pool and global
// list as it goes. Grounded on the teacher's ASTCompiler, regenerated
// against spec.md's AST and opcode set.
type ASTCompiler struct {
	instructions Instructions
	constants    []value.Value
	ctx          *compile.Context
}

// New constructs an ASTCompiler whose compile context already has every
// builtin name pre-declared in canonical order, reserving global indices
// 0..B-1 for them before any user `let` can run.
func New() *ASTCompiler {
	c := &ASTCompiler{ctx: compile.New()}
	for _, name := range builtin.Names() {
		// the prelude owns this declare; a builtin name can never collide
		// with itself here, so the error is unreachable.
		_, _ = c.ctx.DeclareGlobal(name)
	}
	return c
}

// Compile lowers every statement of the program in order and appends the
// top-level HALT epilogue. Returns the first compile-time error (a
// NameError or a SemanticError), if any - the instructions/constants/
// globals built so far are not trustworthy in that case.
//
// Each call starts a fresh instruction stream; the constant pool and the
// global list keep growing across calls, so a compiler reused by the REPL
// hands the VM only the new line's code against indices that stay valid.
func (c *ASTCompiler) Compile(program ast.Program) (Bytecode, error) {
	c.instructions = Instructions{}
	for _, stmt := range program.Statements {
		if err := c.compileStmt(stmt); err != nil {
			return Bytecode{}, err
		}
	}
	c.emit(OP_HALT)
	return Bytecode{
		Instructions: c.instructions,
		Constants:    c.constants,
		Globals:      c.ctx.Globals(),
	}, nil
}

func (c *ASTCompiler) emit(op Opcode, operands ...int) int {
	position := len(c.instructions)
	c.instructions = append(c.instructions, MakeInstruction(op, operands...)...)
	return position
}

// patchJump overwrites the single operand byte of the JUMP/JUMP_IF_FALSE
// instruction at position with the current instruction-stream length,
// grounded on the teacher's emitPlaceholderJump/patchJump back-patch
// pattern (forward jump target unknown until the jumped-over code compiles).
func (c *ASTCompiler) patchJump(position int) {
	c.instructions[position+1] = byte(len(c.instructions))
}

func (c *ASTCompiler) pushConstant(v value.Value) (int, error) {
	if len(c.constants) >= 256 {
		return 0, SemanticError{Message: "constant pool exhausted (256 entries, one-byte operand width)"}
	}
	c.constants = append(c.constants, v)
	return len(c.constants) - 1, nil
}

func (c *ASTCompiler) compileStmt(stmt ast.Stmt) error {
	v := stmt.Accept(c)
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

func (c *ASTCompiler) compileExpr(expr ast.Expr) error {
	v := expr.Accept(c)
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

// VisitLet implements `let name = expr;`: compile expr, declare name, emit
// DEF_GLOBAL at its freshly assigned index.
func (c *ASTCompiler) VisitLet(stmt ast.Let) any {
	name := stmt.Name.Lexeme
	if c.ctx.IsDefined(name) {
		return compile.NameError{Message: fmt.Sprintf("identifier `%s` is already defined", name)}
	}
	if err := c.compileExpr(stmt.Value); err != nil {
		return err
	}
	index, err := c.ctx.DeclareGlobal(name)
	if err != nil {
		return err
	}
	c.emit(OP_DEF_GLOBAL, index)
	return nil
}

// VisitFn reserves the shape for a user-defined function (name, params,
// body) without emitting a callable body, per spec.md's explicit non-goal.
func (c *ASTCompiler) VisitFn(stmt ast.Fn) any {
	name := stmt.Name.Lexeme
	if c.ctx.IsDefined(name) {
		return compile.NameError{Message: fmt.Sprintf("identifier `%s` is already defined", name)}
	}
	if _, err := c.ctx.DeclareGlobal(name); err != nil {
		return err
	}
	return nil
}

// VisitBlock opens a scope, compiles its statements in order, closes it.
func (c *ASTCompiler) VisitBlock(stmt ast.Block) any {
	c.ctx.OpenScope()
	defer c.ctx.CloseScope()
	for _, s := range stmt.Stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// VisitMut implements `=`/`+=`/`-=`/`*=`/`/=`. The left side must be an
// identifier already known in scope. Simple `=` compiles the RHS then
// emits SET_GLOBAL; compound forms desugar to LOAD_GLOBAL, RHS, the
// matching arithmetic op, then SET_GLOBAL - exactly spec.md §4.4's rule.
func (c *ASTCompiler) VisitMut(stmt ast.Mut) any {
	identifier, ok := stmt.Left.(ast.Identifier)
	if !ok {
		return SemanticError{Message: "left side of an assignment must be an identifier"}
	}
	name := identifier.Name.Lexeme
	if err := c.ctx.RequireDefined(name); err != nil {
		return err
	}
	index, _ := c.ctx.ResolveGlobal(name)

	switch stmt.Op.TokenType {
	case token.ASSIGN:
		if err := c.compileExpr(stmt.Right); err != nil {
			return err
		}
	case token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.DIV_ASSIGN:
		c.emit(OP_LOAD_GLOBAL, index)
		if err := c.compileExpr(stmt.Right); err != nil {
			return err
		}
		c.emit(compoundOp(stmt.Op.TokenType))
	default:
		return DeveloperError{Message: fmt.Sprintf("unrecognized mutation operator %v", stmt.Op.TokenType)}
	}

	c.emit(OP_SET_GLOBAL, index)
	return nil
}

func compoundOp(t token.TokenType) Opcode {
	switch t {
	case token.ADD_ASSIGN:
		return OP_ADD
	case token.SUB_ASSIGN:
		return OP_SUB
	case token.MUL_ASSIGN:
		return OP_MUL
	case token.DIV_ASSIGN:
		return OP_DIV
	default:
		return OP_HALT
	}
}

// VisitExprStmt compiles an expression for its side effect. There is no
// POP opcode in spec.md's set, so the pushed result is simply left on the
// stack - it becomes the program result if this is the final statement.
func (c *ASTCompiler) VisitExprStmt(stmt ast.ExprStmt) any {
	return c.compileExpr(stmt.Expr)
}

// VisitReturn compiles the return expression. Reserved alongside Fn; never
// reached from a call path today since user functions are not executed.
func (c *ASTCompiler) VisitReturn(stmt ast.Return) any {
	return c.compileExpr(stmt.Expr)
}

// VisitIf compiles `if cond { then } [else { else }]` using forward-patched
// jump opcodes: compile cond, JUMP_IF_FALSE to else (or past-then),
// compile then, JUMP past else, compile else if present. Grounded on the
// teacher's VisitIfStmt/patchJump/emitPlaceholderJump pattern.
func (c *ASTCompiler) VisitIf(stmt ast.If) any {
	if err := c.compileExpr(stmt.Cond); err != nil {
		return err
	}

	jumpIfFalsePos := c.emit(OP_JUMP_IF_FALSE, 0xFF)
	if err := c.compileStmt(stmt.Then); err != nil {
		return err
	}

	if stmt.Else == nil {
		c.patchJump(jumpIfFalsePos)
		return nil
	}

	jumpOverElsePos := c.emit(OP_JUMP, 0xFF)
	c.patchJump(jumpIfFalsePos)
	if err := c.compileStmt(*stmt.Else); err != nil {
		return err
	}
	c.patchJump(jumpOverElsePos)
	return nil
}

// VisitBinary compiles `left op right`. Arithmetic operator classes map
// 1:1 to ADD/SUB/MUL/DIV/MOD; comparisons compile to EQUAL/LESS/GREATER
// (with a trailing NOT for their negated forms); `&&`/`||` short-circuit
// via JUMP_IF_FALSE_PEEK/POP/JUMP (see compileAnd/compileOr), since
// spec.md's opcode table has no dedicated logical opcode.
func (c *ASTCompiler) VisitBinary(expr ast.Binary) any {
	if rejectedOperators[expr.Operator.TokenType] {
		return SemanticError{Message: fmt.Sprintf("operator '%s' has no expression semantics yet", expr.Operator.TokenType)}
	}

	switch expr.Operator.TokenType {
	case token.AND:
		return c.compileAnd(expr)
	case token.OR:
		return c.compileOr(expr)
	}

	if err := c.compileExpr(expr.Left); err != nil {
		return err
	}
	if err := c.compileExpr(expr.Right); err != nil {
		return err
	}

	switch expr.Operator.TokenType {
	case token.ADD:
		c.emit(OP_ADD)
	case token.SUB:
		c.emit(OP_SUB)
	case token.MUL:
		c.emit(OP_MUL)
	case token.DIV:
		c.emit(OP_DIV)
	case token.MOD:
		c.emit(OP_MOD)
	case token.EQUAL_EQUAL:
		c.emit(OP_EQUAL)
	case token.NOT_EQUAL:
		c.emit(OP_EQUAL)
		c.emit(OP_NOT)
	case token.LESS:
		c.emit(OP_LESS)
	case token.LARGER:
		c.emit(OP_GREATER)
	case token.LESS_EQUAL:
		c.emit(OP_GREATER)
		c.emit(OP_NOT)
	case token.LARGER_EQUAL:
		c.emit(OP_LESS)
		c.emit(OP_NOT)
	default:
		return SemanticError{Message: fmt.Sprintf("unrecognized binary operator '%s'", expr.Operator.TokenType)}
	}
	return nil
}

// compileAnd short-circuits: compiles Left once, then JUMP_IF_FALSE_PEEK
// tests it without consuming it. If Left is falsy, control jumps past
// Right, leaving Left's own (falsy) value as the result. Otherwise control
// falls through to the POP that discards Left, and Right's value becomes
// the result. Grounded on the teacher's JUMP_IF_FALSE+OP_POP pairing for
// VisitLogicalExpression's AND case, using a peeking jump variant so Left
// never needs recompiling to be retained on the falsy branch.
func (c *ASTCompiler) compileAnd(expr ast.Binary) any {
	if err := c.compileExpr(expr.Left); err != nil {
		return err
	}
	shortCircuit := c.emit(OP_JUMP_IF_FALSE_PEEK, 0xFF)
	c.emit(OP_POP)
	if err := c.compileExpr(expr.Right); err != nil {
		return err
	}
	c.patchJump(shortCircuit)
	return nil
}

// compileOr mirrors compileAnd for `||`: compiles Left once, falls through
// to an unconditional JUMP (past Right) when Left is truthy, leaving
// Left's own value; jumps to the POP+Right path when Left is falsy.
func (c *ASTCompiler) compileOr(expr ast.Binary) any {
	if err := c.compileExpr(expr.Left); err != nil {
		return err
	}
	jumpIfFalsePos := c.emit(OP_JUMP_IF_FALSE_PEEK, 0xFF)
	jumpOverRight := c.emit(OP_JUMP, 0xFF)
	c.patchJump(jumpIfFalsePos)
	c.emit(OP_POP)
	if err := c.compileExpr(expr.Right); err != nil {
		return err
	}
	c.patchJump(jumpOverRight)
	return nil
}

// VisitUnary compiles `-x`, `!x`, `~x`, unary `+x`. `~` and unary `+` are
// tokenized but have no compile-time semantics (error productions, per
// parser.unaryExpressionTypes); `-` emits a dedicated NEG opcode, `!`
// emits NOT.
func (c *ASTCompiler) VisitUnary(expr ast.Unary) any {
	switch expr.Operator.TokenType {
	case token.SUB:
		if err := c.compileExpr(expr.Operand); err != nil {
			return err
		}
		c.emit(OP_NEG)
		return nil
	case token.BANG:
		if err := c.compileExpr(expr.Operand); err != nil {
			return err
		}
		c.emit(OP_NOT)
		return nil
	default:
		return SemanticError{Message: fmt.Sprintf("operator '%s' has no expression semantics yet", expr.Operator.TokenType)}
	}
}

// VisitIdentifier resolves a name through the compile context and emits
// LOAD_GLOBAL at its index. LOAD (local) is reserved, never emitted today.
func (c *ASTCompiler) VisitIdentifier(term ast.Identifier) any {
	name := term.Name.Lexeme
	if err := c.ctx.RequireDefined(name); err != nil {
		return err
	}
	index, _ := c.ctx.ResolveGlobal(name)
	c.emit(OP_LOAD_GLOBAL, index)
	return nil
}

// VisitIntegerLiteral appends the literal to the constant pool and emits CONST.
func (c *ASTCompiler) VisitIntegerLiteral(term ast.IntegerLiteral) any {
	parsed, _ := term.Value.Literal.(int32)
	index, err := c.pushConstant(value.Int32(parsed))
	if err != nil {
		return err
	}
	c.emit(OP_CONST, index)
	return nil
}

// VisitStringLiteral appends the literal to the constant pool and emits
// CONST, same treatment as integers per spec.md §3/§4.1's value table -
// the source's string-literal compile rule was an unimplemented TODO, so
// there is no original behavior to mirror (see SPEC_FULL.md §8).
func (c *ASTCompiler) VisitStringLiteral(term ast.StringLiteral) any {
	decoded, _ := term.Value.Literal.(string)
	index, err := c.pushConstant(value.NewString(decoded))
	if err != nil {
		return err
	}
	c.emit(OP_CONST, index)
	return nil
}

// VisitCharacterLiteral compiles a character literal as its integer code
// point, the same representation the runtime's Integer tag already covers.
func (c *ASTCompiler) VisitCharacterLiteral(term ast.CharacterLiteral) any {
	r, _ := term.Value.Literal.(rune)
	index, err := c.pushConstant(value.Int32(int32(r)))
	if err != nil {
		return err
	}
	c.emit(OP_CONST, index)
	return nil
}

// VisitFunctionCall compiles each argument left-to-right, then the callee,
// then emits CALL n, per spec.md §4.4.
func (c *ASTCompiler) VisitFunctionCall(term ast.FunctionCall) any {
	if len(term.Args) > maxCallArgs {
		return SemanticError{Message: fmt.Sprintf("call has %d arguments, exceeding the maximum of %d", len(term.Args), maxCallArgs)}
	}
	for _, arg := range term.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	if err := c.compileExpr(term.Callee); err != nil {
		return err
	}
	c.emit(OP_CALL, len(term.Args))
	return nil
}
