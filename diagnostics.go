package main

import "fmt"

// diagnostic returns err's single fatal diagnostic line, per spec.md §7's
// propagation policy: "EARL: [KIND] message" at the first occurrence of
// any non-Halt error. Every taxonomy member (parser.SyntaxError,
// compile.NameError, value.TypeError/ArithError, vm.StackError/DecodeError,
// compiler.SemanticError/DeveloperError) renders itself in that shape via
// diag.Render, so this just forwards Error() - a plain error with no
// sentinel type of its own (the lexer's fmt.Errorf values) is rendered by
// its caller through diagnosticWithKind("LexError", ...) instead.
func diagnostic(err error) string {
	return err.Error()
}

// diagnosticWithKind renders the final "EARL: [KIND] message" line given an
// explicit kind label and bare message text, for callers holding a plain
// error rather than one of the taxonomy's sentinel types.
func diagnosticWithKind(kind, message string) string {
	return fmt.Sprintf("EARL: [%s] %s", kind, message)
}
