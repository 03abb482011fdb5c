package interpreter

import "nilan/diag"

// RuntimeError reports an oracle-level failure that isn't already one of
// value.TypeError/value.ArithError/compile.NameError - currently just
// "assignment target is not an identifier" and "unsupported operator" cases the compiler
// itself rejects at compile time, so the oracle only ever sees them when
// fed a hand-built ast.Program that skips compilation.
type RuntimeError struct {
	Message string
}

func CreateRuntimeError(message string) RuntimeError {
	return RuntimeError{Message: message}
}

func (e RuntimeError) Error() string {
	return diag.Render("RuntimeError", e.Message)
}
