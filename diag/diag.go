// Package diag holds the one formatting rule every fatal error kind in this
// repository shares: render as "EARL: [KIND] message", the single
// diagnostic line spec.md §7's propagation policy requires at the first
// occurrence of a non-Halt error. value.TypeError/ArithError,
// compile.NameError, compiler.SemanticError/DeveloperError, parser.SyntaxError,
// and vm.StackError/DecodeError/RuntimeError all implement error by calling
// Render once, rather than each package carrying its own parallel
// Error()-formatting convention.
package diag

import "fmt"

// Render renders a taxonomy member's kind label and message as the one
// diagnostic line a caller - whether a test's t.Fatalf or the CLI's stderr -
// ever needs to print.
func Render(kind, message string) string {
	return fmt.Sprintf("EARL: [%s] %s", kind, message)
}
