package vm

import "nilan/diag"

// StackError reports operand-stack overflow or underflow.
type StackError struct {
	Message string
}

func (e StackError) Error() string {
	return diag.Render("StackError", e.Message)
}

// DecodeError reports an unknown opcode, a truncated operand, or a
// constant/global index out of range.
type DecodeError struct {
	Message string
}

func (e DecodeError) Error() string {
	return diag.Render("DecodeError", e.Message)
}

// RuntimeError is a catch-all wrapper kept for parity with the teacher's
// naming; opcode handlers prefer the more specific StackError/DecodeError/
// value.TypeError/value.ArithError/compile.NameError taxonomy members
// where one applies.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return diag.Render("RuntimeError", e.Message)
}
