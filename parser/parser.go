// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser

//	A Recursive descent parser is a top-down parser because it starts from the top
//
// grammar rule and works its way down in to the nested sub-experessions before reaching
// the leaves of the syntax tree (terminal rules)
package parser

import (
	"fmt"

	"nilan/ast"
	"nilan/token"
)

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
}

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorExpressionTypes = []token.TokenType{
	token.MUL,
	token.DIV,
	token.MOD,
}

// unaryExpressionTypes includes operators with no compile-time semantics
// (TILDE, unary ADD) alongside the real ones (BANG, SUB) as "error
// productions": they parse so the compiler can raise a precise diagnostic
// instead of the parser failing opaquely.
var unaryExpressionTypes = []token.TokenType{
	token.BANG,
	token.SUB,
	token.TILDE,
	token.ADD,
}

// reservedOperatorTypes tokenize but have no parse-time precedence rule of
// their own. In operand position primary() rejects them with a message naming
// the operator; in infix position the enclosing statement or call stops
// before them and fails on its missing ';' or ')'.
var reservedOperatorTypes = []token.TokenType{
	token.AMP, token.PIPE, token.CARET, token.DOTDOT,
	token.COLONCOLON, token.SHL, token.SHR, token.STARSTAR, token.PIPE_GT,
}

type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: The parsers position is always one unit ahead of the
// current token

// Make constructs a Parser over the given token stream.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

func (parser *Parser) isFinished() bool {
	return parser.peek().TokenType == token.EOF
}

func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	return parser.peek().TokenType == tokenType
}

func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for _, tokenType := range tokenTypes {
		if parser.checkType(tokenType) {
			parser.advance()
			return true
		}
	}
	return false
}

// Parse parses the entire token stream into a slice of Stmt, collecting
// as many errors as possible rather than stopping at the first one.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	statements := []ast.Stmt{}
	errors := []error{}

	for !parser.isFinished() {
		statement, err := parser.declaration()
		if err != nil {
			errors = append(errors, err)
			if !parser.isFinished() {
				parser.position++
			}
			continue
		}
		statements = append(statements, statement)
	}

	return statements, errors
}

// declaration parses a `let`/`fn` declaration, or falls through to statement().
func (parser *Parser) declaration() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.LET}) {
		return parser.letDeclaration()
	}
	if parser.isMatch([]token.TokenType{token.FN}) {
		return parser.fnDeclaration()
	}
	return parser.statement()
}

// letDeclaration parses `let name = expr;`. An initializer is mandatory:
// spec.md's compile rule always expects a value expression to leave on the
// stack before DEF_GLOBAL is emitted.
func (parser *Parser) letDeclaration() (ast.Stmt, error) {
	name, err := parser.consume(token.IDENTIFIER, "Expected variable name after 'let'.")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.ASSIGN, "Expected '=' after variable name."); err != nil {
		return nil, err
	}
	value, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if err := parser.consumeTerminator(); err != nil {
		return nil, err
	}
	return ast.Let{Name: name, Value: value}, nil
}

// fnDeclaration parses `fn name(params) { body }`.
func (parser *Parser) fnDeclaration() (ast.Stmt, error) {
	name, err := parser.consume(token.IDENTIFIER, "Expected function name after 'fn'.")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LPA, "Expected '(' after function name."); err != nil {
		return nil, err
	}
	params := []token.Token{}
	if !parser.checkType(token.RPA) {
		for {
			param, err := parser.consume(token.IDENTIFIER, "Expected parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "Expected ')' after parameter list."); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "Expected '{' before function body."); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}
	return ast.Fn{Name: name, Params: params, Body: ast.Block{Stmts: body}}, nil
}

// statement parses a block, an if-statement, a mutation statement, or an expression statement.
func (parser *Parser) statement() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.LCUR}) {
		stmts, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.Block{Stmts: stmts}, nil
	}

	if parser.isMatch([]token.TokenType{token.IF}) {
		return parser.ifStatement()
	}

	if parser.isMatch([]token.TokenType{token.RETURN}) {
		return parser.returnStatement()
	}

	return parser.exprOrMutStatement()
}

// ifStatement parses `if cond { then } [else { else }]`.
func (parser *Parser) ifStatement() (ast.Stmt, error) {
	cond, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "Expected '{' after if condition."); err != nil {
		return nil, err
	}
	thenStmts, err := parser.block()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		if _, err := parser.consume(token.LCUR, "Expected '{' after else."); err != nil {
			return nil, err
		}
		elseStmts, err := parser.block()
		if err != nil {
			return nil, err
		}
		elseBlock = &ast.Block{Stmts: elseStmts}
	}
	return ast.If{Cond: cond, Then: ast.Block{Stmts: thenStmts}, Else: elseBlock}, nil
}

// returnStatement parses `return expr;`.
func (parser *Parser) returnStatement() (ast.Stmt, error) {
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if err := parser.consumeTerminator(); err != nil {
		return nil, err
	}
	return ast.Return{Expr: expr}, nil
}

// exprOrMutStatement parses either a `left op= right;` mutation or a plain
// expression statement, deciding on whichever assignment-family operator
// (if any) follows the first parsed expression.
func (parser *Parser) exprOrMutStatement() (ast.Stmt, error) {
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}

	mutationOps := []token.TokenType{token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.DIV_ASSIGN}
	if parser.isMatch(mutationOps) {
		op := parser.previous()
		right, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if err := parser.consumeTerminator(); err != nil {
			return nil, err
		}
		return ast.Mut{Left: expr, Op: op, Right: right}, nil
	}

	if err := parser.consumeTerminator(); err != nil {
		return nil, err
	}
	return ast.ExprStmt{Expr: expr}, nil
}

// consumeTerminator consumes the `;` ending a statement. A `}`-terminated
// block (e.g. the body of `if`) and end-of-input are both tolerated without
// a semicolon.
func (parser *Parser) consumeTerminator() error {
	if parser.checkType(token.SEMICOLON) {
		parser.advance()
		return nil
	}
	if parser.isFinished() || parser.checkType(token.RCUR) {
		return nil
	}
	_, err := parser.consume(token.SEMICOLON, "Expected ';' after statement.")
	return err
}

// block parses statements until a closing '}', which is consumed.
func (parser *Parser) block() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}

	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if _, err := parser.consume(token.RCUR, "Expected '}' after block."); err != nil {
		return nil, err
	}
	return statements, nil
}

// expression is the entry point for parsing expressions.
func (parser *Parser) expression() (ast.Expr, error) {
	return parser.or()
}

func (parser *Parser) or() (ast.Expr, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.OR}) {
		op := parser.previous()
		right, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) and() (ast.Expr, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.AND}) {
		op := parser.previous()
		right, err := parser.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) equality() (ast.Expr, error) {
	expr, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes) {
		op := parser.previous()
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) comparison() (ast.Expr, error) {
	expr, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		op := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) term() (ast.Expr, error) {
	expr, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		op := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) factor() (ast.Expr, error) {
	expr, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorExpressionTypes) {
		op := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

// unary parses prefix operators "-", "!", "~", unary "+".
func (parser *Parser) unary() (ast.Expr, error) {
	if parser.isMatch(unaryExpressionTypes) {
		op := parser.previous()
		operand, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: op, Operand: operand}, nil
	}
	return parser.call()
}

// call parses a primary expression followed by an optional `(args)` suffix,
// building a FunctionCall term.
func (parser *Parser) call() (ast.Expr, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for parser.isMatch([]token.TokenType{token.LPA}) {
		args := []ast.Expr{}
		if !parser.checkType(token.RPA) {
			for {
				arg, err := parser.expression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !parser.isMatch([]token.TokenType{token.COMMA}) {
					break
				}
			}
		}
		if _, err := parser.consume(token.RPA, "Expected ')' after argument list."); err != nil {
			return nil, err
		}
		expr = ast.FunctionCall{Callee: expr, Args: args}
	}

	return expr, nil
}

// primary parses the leaf terms: literals, identifiers, and parenthesized
// expressions. Parenthesization is not a distinct AST node here - the inner
// expression is returned directly, matching spec.md's Expr/Term data model,
// which has no Grouping variant.
func (parser *Parser) primary() (ast.Expr, error) {
	if parser.isMatch([]token.TokenType{token.INT}) {
		return ast.IntegerLiteral{Value: parser.previous()}, nil
	}
	if parser.isMatch([]token.TokenType{token.STRING}) {
		return ast.StringLiteral{Value: parser.previous()}, nil
	}
	if parser.isMatch([]token.TokenType{token.CHAR}) {
		return ast.CharacterLiteral{Value: parser.previous()}, nil
	}
	if parser.isMatch([]token.TokenType{token.IDENTIFIER}) {
		return ast.Identifier{Name: parser.previous()}, nil
	}
	if parser.isMatch([]token.TokenType{token.LPA}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, "expression is missing ')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	if parser.isMatch(reservedOperatorTypes) {
		op := parser.previous()
		return nil, CreateSyntaxError(op.Line, op.Column, fmt.Sprintf("operator '%s' has no expression semantics yet", op.TokenType))
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "Unrecognised expression.")
}

// consume advances past the current token if its type matches tokenType,
// otherwise returns a SyntaxError built from errorMessage.
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.CreateToken(token.EOF, 0, 0), CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}
