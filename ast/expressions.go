// expressions.go contains all the expression AST nodes. A expression node always evaluates to a value.

package ast

import "nilan/token"

// Binary represents a binary operation expression (e.g., "a + b").
type Binary struct {
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (b Binary) Accept(v ExprVisitor) any { return v.VisitBinary(b) }

// Unary represents a unary operation expression (e.g., "-a", "!a", "~a").
type Unary struct {
	Operator token.Token
	Operand  Expr
}

func (u Unary) Accept(v ExprVisitor) any { return v.VisitUnary(u) }

// Identifier is a Term referencing a bound name.
type Identifier struct {
	Name token.Token
}

func (Identifier) isTerm()                  {}
func (i Identifier) Accept(v ExprVisitor) any { return v.VisitIdentifier(i) }

// IntegerLiteral is a Term holding a decimal integer literal.
type IntegerLiteral struct {
	Value token.Token
}

func (IntegerLiteral) isTerm()                  {}
func (n IntegerLiteral) Accept(v ExprVisitor) any { return v.VisitIntegerLiteral(n) }

// StringLiteral is a Term holding a `"…"` literal.
type StringLiteral struct {
	Value token.Token
}

func (StringLiteral) isTerm()                  {}
func (s StringLiteral) Accept(v ExprVisitor) any { return v.VisitStringLiteral(s) }

// CharacterLiteral is a Term holding a `'x'` literal.
type CharacterLiteral struct {
	Value token.Token
}

func (CharacterLiteral) isTerm()                  {}
func (c CharacterLiteral) Accept(v ExprVisitor) any { return v.VisitCharacterLiteral(c) }

// FunctionCall is a Term applying a callee expression to a list of argument expressions.
type FunctionCall struct {
	Callee Expr
	Args   []Expr
}

func (FunctionCall) isTerm()                  {}
func (f FunctionCall) Accept(v ExprVisitor) any { return v.VisitFunctionCall(f) }
