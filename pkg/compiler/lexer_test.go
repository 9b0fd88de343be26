package compiler

import "testing"

func tokenTypes(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexOperatorsMaximalMunch(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		types []TokenType
	}{
		{"arrow", "a->b", []TokenType{IDENTIFIER, ARROW, IDENTIFIER, EOF}},
		{"walrus", "a := 1", []TokenType{IDENTIFIER, WALRUS, INTEGER, EOF}},
		{"shift-assign", "a <<= 1", []TokenType{IDENTIFIER, SHL_ASSIGN, INTEGER, EOF}},
		{"shift-assign-right", "a >>= 1", []TokenType{IDENTIFIER, SHR_ASSIGN, INTEGER, EOF}},
		{"eq-vs-assign", "a == b = c", []TokenType{IDENTIFIER, EQ, IDENTIFIER, ASSIGN, IDENTIFIER, EOF}},
		{"increment", "a++", []TokenType{IDENTIFIER, PLUS_PLUS, EOF}},
		{"and-or", "a && b || c", []TokenType{IDENTIFIER, AND_LOGICAL, IDENTIFIER, OR_LOGICAL, IDENTIFIER, EOF}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Lex(tc.src, false)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tc.src, err)
			}
			got := tokenTypes(toks)
			if len(got) != len(tc.types) {
				t.Fatalf("Lex(%q) = %v, want %v", tc.src, got, tc.types)
			}
			for i := range got {
				if got[i] != tc.types[i] {
					t.Errorf("Lex(%q)[%d] = %v, want %v", tc.src, i, got[i], tc.types[i])
				}
			}
		})
	}
}

func TestLexAlternativeOperatorSpellings(t *testing.T) {
	toks, err := Lex("a and b or not c", false)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	want := []TokenType{IDENTIFIER, AND_LOGICAL, IDENTIFIER, OR_LOGICAL, NOT, IDENTIFIER, EOF}
	got := tokenTypes(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexIndentationPythonMode(t *testing.T) {
	src := "if (x == 1):\n    y = 2\nz = 3\n"
	toks, err := Lex(src, true)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	var indents, dedents int
	for _, tok := range toks {
		switch tok.Type {
		case INDENT:
			indents++
		case DEDENT:
			dedents++
		}
	}
	if indents != 1 {
		t.Errorf("expected exactly 1 INDENT, got %d", indents)
	}
	if dedents != 1 {
		t.Errorf("expected exactly 1 DEDENT, got %d", dedents)
	}
}

func TestLexTripleQuotedString(t *testing.T) {
	src := "\"\"\"line one\nline two\"\"\""
	toks, err := Lex(src, false)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	if len(toks) < 1 || toks[0].Type != STRING {
		t.Fatalf("expected a single STRING token, got %v", tokenTypes(toks))
	}
	want := "line one\nline two"
	if toks[0].Text != want {
		t.Errorf("triple-quoted text = %q, want %q", toks[0].Text, want)
	}
}

func TestLexFString(t *testing.T) {
	toks, err := Lex(`f"hi {1+2}"`, false)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	want := []TokenType{FSTRING_PART, LBRACE_EXP, INTEGER, PLUS, INTEGER, RBRACE_EXP, EOF}
	got := tokenTypes(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if toks[0].Text != "hi " {
		t.Errorf("FSTRING_PART text = %q, want %q", toks[0].Text, "hi ")
	}
}

func TestLexLineAndBlockComments(t *testing.T) {
	src := "int a; // trailing comment\n/* block\nspans lines */ int b;"
	toks, err := Lex(src, false)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	for _, tok := range toks {
		if tok.Type == UNKNOWN {
			t.Fatalf("unexpected UNKNOWN token in %v", tokenTypes(toks))
		}
	}
}

func TestLexIntegerLiterals(t *testing.T) {
	toks, err := Lex("42 0xFF", false)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	if len(toks) < 2 || toks[0].Text != "42" || toks[1].Text != "0xFF" {
		t.Fatalf("unexpected tokens: %+v", toks)
	}
}
