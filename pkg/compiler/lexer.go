package compiler

import (
	"fmt"
	"strings"
)

// Lexer holds all mutable state for a single scanning pass over src. It
// switches between two layout disciplines selected once at construction:
// pythonMode drives INDENT/DEDENT from leading whitespace; brace mode
// ignores leading whitespace entirely and relies on explicit { }.
//
// The two dialects are not interleaved within a single lexer instance in
// practice, so one mode flag picked at entry is enough: a braced function
// body embedded in a Python-mode file still emits braces normally, and
// indentation changes inside those braces are simply not tracked as layout
// tokens. That is the intended behavior, not a bug (see design notes).
type Lexer struct {
	src        []rune
	pos        int
	line       int
	pythonMode bool
	indent     []int // monotonically increasing from bottom (0) to top
	atLineHead bool  // true when pos is right after a newline (or at start)
}

func newLexer(src string, pythonMode bool) *Lexer {
	return &Lexer{
		src:        []rune(src),
		pos:        0,
		line:       1,
		pythonMode: pythonMode,
		indent:     []int{0},
		atLineHead: true,
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.atLineHead = true
	}
	return r
}

// measureIndent consumes leading whitespace on a fresh line and returns its
// column width: a tab counts as 4 columns, a space as 1.
func (l *Lexer) measureIndent() int {
	width := 0
	for {
		switch l.peek() {
		case '\t':
			width += 4
			l.advance()
		case ' ':
			width++
			l.advance()
		default:
			return width
		}
	}
}

// layoutTokens emits INDENT/DEDENT tokens for the current line head, if in
// Python mode. Blank lines and comment-only lines never drive layout: the
// caller only invokes this right before scanning real content.
func (l *Lexer) layoutTokens() []Token {
	if !l.pythonMode || !l.atLineHead {
		return nil
	}
	line := l.line
	width := l.measureIndent()

	// A blank line or a comment-only line carries no layout information:
	// treat the whitespace just consumed as ordinary trivia (not indent)
	// and let skipTrivia handle the rest of the line normally.
	switch l.peek() {
	case '\n', 0:
		l.atLineHead = false
		return nil
	case '/':
		if l.peekAt(1) == '/' || l.peekAt(1) == '*' {
			l.atLineHead = false
			return nil
		}
	}

	l.atLineHead = false
	top := l.indent[len(l.indent)-1]

	var toks []Token
	switch {
	case width > top:
		l.indent = append(l.indent, width)
		toks = append(toks, Token{Type: INDENT, Text: fmt.Sprintf("%d", width), Line: line})
	case width < top:
		for len(l.indent) > 1 && l.indent[len(l.indent)-1] > width {
			l.indent = l.indent[:len(l.indent)-1]
			toks = append(toks, Token{Type: DEDENT, Line: line})
		}
	}
	return toks
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) skipBlockComment() {
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for isIdentPart(l.peek()) {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[text]; ok {
		tt = kw
	}
	return Token{Type: tt, Text: text, Line: line}
}

func (l *Lexer) scanNumber() Token {
	line := l.line
	start := l.pos
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
	} else {
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return Token{Type: INTEGER, Text: string(l.src[start:l.pos]), Line: line}
}

// scanString consumes a plain "..." or a triple-quoted """...""" literal.
// Both produce a single cooked STRING token; the triple form advances the
// line counter across embedded newlines and does not interpret escapes.
func (l *Lexer) scanString() (Token, error) {
	line := l.line
	if l.peek() == '"' && l.peekAt(1) == '"' && l.peekAt(2) == '"' {
		l.advance()
		l.advance()
		l.advance()
		var sb strings.Builder
		for {
			if l.pos >= len(l.src) {
				return Token{}, fmt.Errorf("unterminated triple-quoted string opened on line %d", line)
			}
			if l.peek() == '"' && l.peekAt(1) == '"' && l.peekAt(2) == '"' {
				l.advance()
				l.advance()
				l.advance()
				return Token{Type: STRING, Text: sb.String(), Line: line}, nil
			}
			sb.WriteRune(l.advance())
		}
	}

	l.advance() // opening "
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) || l.peek() == '\n' {
			return Token{}, fmt.Errorf("unterminated string literal on line %d", line)
		}
		r := l.peek()
		if r == '"' {
			l.advance()
			return Token{Type: STRING, Text: sb.String(), Line: line}, nil
		}
		if r == '\\' {
			l.advance()
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(l.advance())
	}
}

// scanFString tokenizes an f"..." literal into a flat run of tokens: plain
// text becomes FSTRING_PART, and each {expr} becomes LBRACE_EXP, the tokens
// of expr (lexed recursively), then RBRACE_EXP. Nested braces inside expr are
// tracked by a depth counter only, not by full recursive tokenization: a
// string literal inside expr that itself contains "{" can misbalance this
// count. That is a known, accepted limitation (see design notes), not a bug
// to fix here.
func (l *Lexer) scanFString() ([]Token, error) {
	line := l.line
	l.advance() // 'f'
	l.advance() // opening "
	var out []Token
	var part strings.Builder

	flushPart := func() {
		if part.Len() > 0 {
			out = append(out, Token{Type: FSTRING_PART, Text: part.String(), Line: line})
			part.Reset()
		}
	}

	for {
		if l.pos >= len(l.src) {
			return nil, fmt.Errorf("unterminated f-string literal opened on line %d", line)
		}
		r := l.peek()
		if r == '"' {
			l.advance()
			flushPart()
			return out, nil
		}
		if r == '{' {
			flushPart()
			l.advance()
			out = append(out, Token{Type: LBRACE_EXP, Text: "{", Line: l.line})
			depth := 1
			var exprSrc strings.Builder
			for l.pos < len(l.src) && depth > 0 {
				c := l.peek()
				if c == '{' {
					depth++
				} else if c == '}' {
					depth--
					if depth == 0 {
						l.advance()
						break
					}
				}
				exprSrc.WriteRune(l.advance())
			}
			inner := newLexer(exprSrc.String(), l.pythonMode)
			innerToks, err := inner.Lex()
			if err != nil {
				return nil, err
			}
			for _, it := range innerToks {
				if it.Type == EOF {
					continue
				}
				out = append(out, it)
			}
			out = append(out, Token{Type: RBRACE_EXP, Text: "}", Line: l.line})
			continue
		}
		if r == '\\' {
			l.advance()
			esc := l.advance()
			switch esc {
			case 'n':
				part.WriteByte('\n')
			case 't':
				part.WriteByte('\t')
			default:
				part.WriteRune(esc)
			}
			continue
		}
		part.WriteRune(l.advance())
	}
}

// skipTrivia consumes whitespace and comments up to the next real token or
// line head. It stops (without consuming) as soon as atLineHead becomes
// true, so the caller can drain layout tokens before resuming.
func (l *Lexer) skipTrivia() {
	for {
		if l.atLineHead {
			return
		}
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
			continue
		case '\n':
			l.advance()
			continue
		}
		if l.peek() == '/' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if l.peek() == '/' && l.peekAt(1) == '*' {
			l.advance()
			l.advance()
			l.skipBlockComment()
			continue
		}
		// A '#' may be a preprocessor directive already consumed by the
		// preprocessor, or a stray comment. Either way, by the time the
		// lexer sees one it is dead text: peek the following word and skip
		// to end of line if it looks like "define"/"include", otherwise
		// treat the character itself as ordinary (falls through below).
		if l.peek() == '#' {
			save := l.pos
			l.advance()
			start := l.pos
			for isIdentPart(l.peek()) {
				l.advance()
			}
			word := string(l.src[start:l.pos])
			if word == "define" || word == "include" {
				l.skipLineComment()
				continue
			}
			l.pos = save
		}
		return
	}
}

// nextToken scans exactly one token, assuming skipTrivia has already been
// called and the lexer is positioned at real content (or EOF).
func (l *Lexer) nextToken() (Token, error) {
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Line: l.line}, nil
	}

	ch := l.peek()
	line := l.line

	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}
	if isDigit(ch) {
		return l.scanNumber(), nil
	}
	if ch == '"' {
		return l.scanString()
	}

	l.advance()
	switch ch {
	case '(':
		return Token{LPAREN, "(", line}, nil
	case ')':
		return Token{RPAREN, ")", line}, nil
	case '{':
		return Token{LBRACE, "{", line}, nil
	case '}':
		return Token{RBRACE, "}", line}, nil
	case '[':
		return Token{LBRACKET, "[", line}, nil
	case ']':
		return Token{RBRACKET, "]", line}, nil
	case ',':
		return Token{COMMA, ",", line}, nil
	case ';':
		return Token{SEMICOLON, ";", line}, nil
	case '.':
		return Token{DOT, ".", line}, nil
	case ':':
		if l.peek() == '=' {
			l.advance()
			return Token{WALRUS, ":=", line}, nil
		}
		return Token{COLON, ":", line}, nil
	case '+':
		if l.peek() == '+' {
			l.advance()
			return Token{PLUS_PLUS, "++", line}, nil
		}
		if l.peek() == '=' {
			l.advance()
			return Token{PLUS_ASSIGN, "+=", line}, nil
		}
		return Token{PLUS, "+", line}, nil
	case '-':
		if l.peek() == '-' {
			l.advance()
			return Token{MINUS_MINUS, "--", line}, nil
		}
		if l.peek() == '>' {
			l.advance()
			return Token{ARROW, "->", line}, nil
		}
		if l.peek() == '=' {
			l.advance()
			return Token{MINUS_ASSIGN, "-=", line}, nil
		}
		return Token{MINUS, "-", line}, nil
	case '*':
		if l.peek() == '=' {
			l.advance()
			return Token{STAR_ASSIGN, "*=", line}, nil
		}
		return Token{STAR, "*", line}, nil
	case '/':
		if l.peek() == '=' {
			l.advance()
			return Token{SLASH_ASSIGN, "/=", line}, nil
		}
		return Token{SLASH, "/", line}, nil
	case '%':
		if l.peek() == '=' {
			l.advance()
			return Token{PERCENT_ASSIGN, "%=", line}, nil
		}
		return Token{PERCENT, "%", line}, nil
	case '&':
		if l.peek() == '&' {
			l.advance()
			return Token{AND_LOGICAL, "&&", line}, nil
		}
		if l.peek() == '=' {
			l.advance()
			return Token{AND_ASSIGN, "&=", line}, nil
		}
		return Token{AMP, "&", line}, nil
	case '|':
		if l.peek() == '|' {
			l.advance()
			return Token{OR_LOGICAL, "||", line}, nil
		}
		if l.peek() == '=' {
			l.advance()
			return Token{OR_ASSIGN, "|=", line}, nil
		}
		return Token{PIPE, "|", line}, nil
	case '^':
		if l.peek() == '=' {
			l.advance()
			return Token{XOR_ASSIGN, "^=", line}, nil
		}
		return Token{CARET, "^", line}, nil
	case '~':
		return Token{TILDE, "~", line}, nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return Token{NOT_EQ, "!=", line}, nil
		}
		return Token{NOT, "!", line}, nil
	case '<':
		if l.peek() == '<' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return Token{SHL_ASSIGN, "<<=", line}, nil
			}
			return Token{SHL, "<<", line}, nil
		}
		if l.peek() == '=' {
			l.advance()
			return Token{LESS_EQ, "<=", line}, nil
		}
		return Token{LESS, "<", line}, nil
	case '>':
		if l.peek() == '>' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return Token{SHR_ASSIGN, ">>=", line}, nil
			}
			return Token{SHR, ">>", line}, nil
		}
		if l.peek() == '=' {
			l.advance()
			return Token{GREATER_EQ, ">=", line}, nil
		}
		return Token{GREATER, ">", line}, nil
	case '=':
		if l.peek() == '=' {
			l.advance()
			return Token{EQ, "==", line}, nil
		}
		return Token{ASSIGN, "=", line}, nil
	default:
		return Token{UNKNOWN, string(ch), line}, nil
	}
}

// Lex tokenizes src under the given mode and returns the full token stream,
// always terminated by exactly one EOF. Malformed tokens never abort the
// scan: illegal characters come back as UNKNOWN and let the parser skip past
// them, per the permissive error-handling design (spec §7). Only an
// unterminated string/f-string literal stops the scan early, since there is
// no sensible token to recover with.
func Lex(src string, pythonMode bool) ([]Token, error) {
	return newLexer(src, pythonMode).Lex()
}

// Lex runs the scan to completion on an already-constructed Lexer. Exported
// so scanFString can recurse into a fresh sub-lexer over just the captured
// expression text and splice its tokens into the outer stream.
func (l *Lexer) Lex() ([]Token, error) {
	var tokens []Token
	for {
		if toks := l.layoutTokens(); toks != nil {
			tokens = append(tokens, toks...)
			continue
		}

		l.skipTrivia()
		if l.atLineHead {
			// blank or comment-only line that produced no layout change:
			// loop back so the next real line gets its INDENT/DEDENT check.
			continue
		}

		if l.pos < len(l.src) && l.peek() == 'f' && l.peekAt(1) == '"' {
			fToks, err := l.scanFString()
			if err != nil {
				return tokens, err
			}
			tokens = append(tokens, fToks...)
			continue
		}

		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		if tok.Type == EOF {
			tokens = append(tokens, tok)
			break
		}
		tokens = append(tokens, tok)
	}
	for len(l.indent) > 1 {
		l.indent = l.indent[:len(l.indent)-1]
		// insert DEDENT tokens before the trailing EOF
		tokens = append(tokens[:len(tokens)-1], Token{Type: DEDENT, Line: l.line}, tokens[len(tokens)-1])
	}
	return tokens, nil
}
