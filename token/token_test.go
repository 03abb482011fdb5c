package token

import "testing"

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		line      int32
		column    int
	}{
		{"ASSIGN token", ASSIGN, 1, 3},
		{"IDENTIFIER token", IDENTIFIER, 2, 0},
		{"EOF token", EOF, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, tt.line, tt.column)
			want := Token{TokenType: tt.tokenType, Line: tt.line, Column: tt.column}
			if got != want {
				t.Errorf("CreateToken() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		literal   any
		lexeme    string
	}{
		{"INT literal", INT, int32(42), "42"},
		{"STRING literal", STRING, "hello", "hello"},
		{"IDENTIFIER with lexeme", IDENTIFIER, nil, "myVar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateLiteralToken(tt.tokenType, tt.literal, tt.lexeme, 0, 0)
			if got.TokenType != tt.tokenType || got.Literal != tt.literal || got.Lexeme != tt.lexeme {
				t.Errorf("CreateLiteralToken() = %+v", got)
			}
		})
	}
}

func TestTokenString(t *testing.T) {
	tok := CreateLiteralToken(INT, int32(7), "7", 1, 1)
	if tok.String() == "" {
		t.Errorf("String() returned empty output for %+v", tok)
	}
}
