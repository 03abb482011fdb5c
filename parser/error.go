package parser

import (
	"fmt"

	"nilan/diag"
)

// SyntaxError reports a parse-time failure at a specific source position.
type SyntaxError struct {
	Line    int32
	Column  int
	Message string
}

func CreateSyntaxError(line int32, column int, message string) SyntaxError {
	return SyntaxError{
		Line:    line,
		Column:  column,
		Message: message,
	}
}

func (e SyntaxError) Error() string {
	return diag.Render("ParseError", fmt.Sprintf("line %d, column %d - %s", e.Line, e.Column, e.Message))
}
