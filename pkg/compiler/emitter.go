package compiler

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Emitter fuses parsing and code generation into one pass: there is no
// intermediate AST. Every construct is recognized and turned directly into
// bytes in out, with forward jumps recorded as patches and back-filled once
// their target offset is known.
type Emitter struct {
	toks []Token
	pos  int

	out  []byte
	syms *SymbolTable

	loopStack []loopLabels
	trace     []string // verbose-mode trail of recognized constructs, nil unless requested
}

type loopLabels struct {
	continuePatches []int // offsets of 4-byte placeholders to fill with the loop's continue target
	breakPatches    []int // offsets of 4-byte placeholders to fill with the loop's break target
}

func NewEmitter(toks []Token, syms *SymbolTable) *Emitter {
	return &Emitter{toks: toks, syms: syms}
}

func (e *Emitter) EnableTrace() { e.trace = []string{} }
func (e *Emitter) Trace() []string { return e.trace }

func (e *Emitter) note(format string, args ...interface{}) {
	if e.trace != nil {
		e.trace = append(e.trace, fmt.Sprintf(format, args...))
	}
}

func (e *Emitter) cur() Token {
	if e.pos >= len(e.toks) {
		return Token{Type: EOF}
	}
	return e.toks[e.pos]
}

func (e *Emitter) at(off int) Token {
	if e.pos+off >= len(e.toks) {
		return Token{Type: EOF}
	}
	return e.toks[e.pos+off]
}

func (e *Emitter) advance() Token {
	t := e.cur()
	if e.pos < len(e.toks) {
		e.pos++
	}
	return t
}

func (e *Emitter) accept(tt TokenType) bool {
	if e.cur().Type == tt {
		e.advance()
		return true
	}
	return false
}

func (e *Emitter) acceptKeyword(word string) bool {
	if e.cur().Type == KEYWORD && e.cur().Text == word {
		e.advance()
		return true
	}
	return false
}

func (e *Emitter) isKeyword(word string) bool {
	return e.cur().Type == KEYWORD && e.cur().Text == word
}

// ---- emission primitives ----

func (e *Emitter) emit(b byte) int {
	e.out = append(e.out, b)
	return len(e.out) - 1
}

func (e *Emitter) emitOp(op Op) int { return e.emit(byte(op)) }

func (e *Emitter) emitU32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	e.out = append(e.out, buf[:]...)
}

func (e *Emitter) emitPushInt(v int64) {
	e.emitOp(OpPushInt)
	e.emitU32(uint32(v))
	e.foldConstants()
}

// emitPushStr writes the opcode followed by a one-byte length and the raw
// bytes, so string operands are capped at 255 characters.
func (e *Emitter) emitPushStr(s string) {
	e.emitOp(OpPushStr)
	e.emit(byte(len(s)))
	e.out = append(e.out, []byte(s)...)
}

func (e *Emitter) emitSyscall(id Syscall) {
	e.emitOp(OpSyscall)
	e.emit(byte(id))
}

// emitNameOperand writes a one-byte-length-prefixed name directly into the
// stream, with no opcode byte of its own: used for the operand of STORE,
// LOAD, and CALL, which all take a name rather than a pushed value.
func (e *Emitter) emitNameOperand(name string) {
	e.emit(byte(len(name)))
	e.out = append(e.out, []byte(name)...)
}

func (e *Emitter) emitStore(name string) {
	e.emitOp(OpStore)
	e.emitNameOperand(name)
}

func (e *Emitter) emitLoad(name string) {
	e.emitOp(OpLoad)
	e.emitNameOperand(name)
}

// emitJumpPlaceholder emits op followed by a 4-byte placeholder and returns
// the placeholder's offset, to be filled in later by patchJump.
func (e *Emitter) emitJumpPlaceholder(op Op) int {
	e.emitOp(op)
	at := len(e.out)
	e.emitU32(0)
	return at
}

func (e *Emitter) patchJump(placeholderOffset int, target int) {
	binary.BigEndian.PutUint32(e.out[placeholderOffset:placeholderOffset+4], uint32(target))
}

func (e *Emitter) here() int { return len(e.out) }

// foldConstants implements the original compiler's peephole constant
// folding: after emitting a PUSH_INT, if the preceding bytes (within the
// last 10) are PUSH_INT, <operand> that could combine with a pending binary
// operator already emitted, collapse the pair into one PUSH_INT. This
// compiler applies the fold at the point a binary arithmetic op is emitted
// (see emitBinaryOp), not blindly on every PUSH_INT; this hook exists so
// emitPushInt and emitBinaryOp share one implementation.
func (e *Emitter) foldConstants() {}

// tryFoldBinary collapses "PUSH_INT a; PUSH_INT b; <op>" into a single
// PUSH_INT of the folded result, scanning only the last 10 bytes of out
// (two 5-byte PUSH_INT encodings). Division and modulus by a literal zero
// are never folded, so the runtime trap still fires. Folds any binary
// arithmetic or bitwise opcode. Returns true if a fold happened (out has
// already been rewritten).
func (e *Emitter) tryFoldBinary(op Op) bool {
	const win = 10
	if len(e.out) < win {
		return false
	}
	tail := e.out[len(e.out)-win:]
	if Op(tail[0]) != OpPushInt || Op(tail[5]) != OpPushInt {
		return false
	}
	a := int64(int32(binary.BigEndian.Uint32(tail[1:5])))
	b := int64(int32(binary.BigEndian.Uint32(tail[6:10])))

	var result int64
	switch op {
	case OpAdd:
		result = a + b
	case OpSub:
		result = a - b
	case OpMul:
		result = a * b
	case OpDiv:
		if b == 0 {
			return false
		}
		result = a / b
	case OpMod:
		if b == 0 {
			return false
		}
		result = a % b
	case OpBitAnd:
		result = a & b
	case OpBitOr:
		result = a | b
	case OpBitXor:
		result = a ^ b
	case OpShl:
		result = a << uint(b)
	case OpShr:
		result = a >> uint(b)
	default:
		return false
	}

	e.out = e.out[:len(e.out)-win]
	e.emitOp(OpPushInt)
	e.emitU32(uint32(result))
	return true
}

func (e *Emitter) emitBinaryOp(op Op) {
	if e.tryFoldBinary(op) {
		return
	}
	e.emitOp(op)
}

// ---- entry point ----

// Emit consumes the full token stream and returns the raw bytecode body
// (without the CASM magic prefix). The final instruction is always
// "CALL <entry>; HALT" where entry is "main" if defined, else "Main".
func Emit(toks []Token, syms *SymbolTable) ([]byte, []string, error) {
	return EmitWith(NewEmitter(toks, syms))
}

// EmitWith runs emission against an already-constructed Emitter, so a
// caller can opt into trace collection via EnableTrace before running.
func EmitWith(e *Emitter) ([]byte, []string, error) {
	for e.cur().Type != EOF {
		if err := e.topLevel(); err != nil {
			return nil, e.trace, err
		}
	}
	entry := "main"
	if _, ok := e.syms.Lookup("main"); !ok {
		if _, ok := e.syms.Lookup("Main"); ok {
			entry = "Main"
		}
	}
	if _, ok := e.syms.Lookup(entry); ok {
		e.emitOp(OpCall)
		e.emitNameOperand(entry)
	}
	e.emitOp(OpHalt)
	return e.out, e.trace, nil
}

// ---- top level ----

func (e *Emitter) topLevel() error {
	if e.isKeyword("__module__") {
		e.advance()
		name := e.advance().Text
		e.syms.PushModule(name)
		e.note("enter module %s", name)
		return nil
	}
	if e.isKeyword("__endmodule__") {
		e.advance()
		e.note("leave module")
		e.syms.PopModule()
		return nil
	}

	for e.cur().Type == KEYWORD && declModifiers[e.cur().Text] {
		word := e.cur().Text
		e.advance()
		switch word {
		case "alignas", "alignof", "static_assert", "_Static_assert", "typeof", "typeof_unqual":
			e.skipParenArgs()
		}
	}

	if e.isKeyword("using") || e.isKeyword("import") || e.isKeyword("module") || e.isKeyword("export") {
		e.skipToSemicolonOrNewline()
		return nil
	}

	if e.isKeyword("namespace") || e.isKeyword("class") || e.isKeyword("struct") ||
		e.isKeyword("union") || e.isKeyword("enum") {
		e.advance()
		if e.cur().Type == IDENTIFIER || e.cur().Type == KEYWORD {
			e.advance()
		}
		e.skipBalancedBody()
		return nil
	}

	// A declaration is "def NAME", "TYPE NAME", or "TYPE* NAME" — so a bare
	// identifier only starts a declaration when a second identifier follows
	// it (the variable/function name); "f()" or "x = 1" at top level is an
	// ordinary statement, not a declaration with "f"/"x" as a bogus type.
	if e.isKeyword("def") || (e.cur().Type == KEYWORD && typeSpecifiers[e.cur().Text]) ||
		(e.cur().Type == IDENTIFIER && (e.at(1).Type == IDENTIFIER || e.at(1).Type == STAR)) {
		return e.declaration()
	}

	return e.statement()
}

func (e *Emitter) skipParenArgs() {
	if !e.accept(LPAREN) {
		return
	}
	depth := 1
	for depth > 0 && e.cur().Type != EOF {
		switch e.cur().Type {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
		}
		e.advance()
	}
}

func (e *Emitter) skipToSemicolonOrNewline() {
	for e.cur().Type != EOF && e.cur().Type != SEMICOLON && e.cur().Type != INDENT &&
		e.cur().Type != DEDENT {
		e.advance()
	}
	e.accept(SEMICOLON)
}

// skipBalancedBody consumes a {...} or INDENT...DEDENT body without
// emitting anything: used for namespace/class/struct/union/enum bodies,
// whose members (if any) this compiler does not lay out.
func (e *Emitter) skipBalancedBody() {
	if e.accept(LBRACE) {
		depth := 1
		for depth > 0 && e.cur().Type != EOF {
			switch e.cur().Type {
			case LBRACE:
				depth++
			case RBRACE:
				depth--
			}
			e.advance()
		}
		e.accept(SEMICOLON)
		return
	}
	if e.accept(INDENT) {
		depth := 1
		for depth > 0 && e.cur().Type != EOF {
			switch e.cur().Type {
			case INDENT:
				depth++
			case DEDENT:
				depth--
			}
			e.advance()
		}
		return
	}
	e.skipToSemicolonOrNewline()
}

// ---- declarations ----

func (e *Emitter) typeName() string {
	var parts []string
	for e.cur().Type == KEYWORD && typeSpecifiers[e.cur().Text] {
		parts = append(parts, e.advance().Text)
	}
	if len(parts) == 0 {
		if e.cur().Type == IDENTIFIER || e.cur().Type == KEYWORD {
			return e.advance().Text
		}
		return ""
	}
	return strings.Join(parts, " ")
}

func (e *Emitter) declaration() error {
	// "def NAME(...)" names the function directly, with no preceding return
	// type; a C-style declaration is "TYPE NAME(...)" or "TYPE NAME = ...".
	if e.acceptKeyword("def") {
		if e.cur().Type != IDENTIFIER && e.cur().Type != KEYWORD {
			return e.statement()
		}
		name := e.advance().Text
		if e.cur().Type == LPAREN {
			return e.functionDeclaration(name)
		}
		return e.variableDeclaration(name)
	}

	e.typeName()
	for e.accept(STAR) || e.cur().Text == "?" {
		if e.cur().Text == "?" {
			e.advance()
		}
	}
	if e.cur().Type != IDENTIFIER && e.cur().Type != KEYWORD {
		return e.statement()
	}
	name := e.advance().Text

	if e.cur().Type == LPAREN {
		return e.functionDeclaration(name)
	}
	return e.variableDeclaration(name)
}

func (e *Emitter) functionDeclaration(name string) error {
	e.note("function %s", name)
	e.skipParenArgs()
	if e.accept(ARROW) {
		e.typeName()
	}

	mangled := e.syms.Mangle(name)
	e.emitPushInt(0)
	e.emitStore(mangled)

	skip := e.emitJumpPlaceholder(OpJmp)
	e.syms.Define(mangled, e.here())

	if err := e.block(); err != nil {
		return err
	}
	e.emitOp(OpRet)
	e.patchJump(skip, e.here())
	return nil
}

func (e *Emitter) variableDeclaration(name string) error {
	isArray := false
	if e.accept(LBRACKET) {
		isArray = true
		for e.cur().Type != RBRACKET && e.cur().Type != EOF {
			e.advance()
		}
		e.accept(RBRACKET)
	}
	_ = isArray

	mangled := e.syms.Mangle(name)

	if e.accept(LBRACE) {
		idx := 0
		for e.cur().Type != RBRACE && e.cur().Type != EOF {
			fieldName := ""
			if e.cur().Type == DOT {
				e.advance()
				fieldName = e.advance().Text
				e.accept(COLON)
			}
			if err := e.expression(0); err != nil {
				return err
			}
			if fieldName != "" {
				e.emitStore(mangled + "." + fieldName)
			} else {
				e.emitStore(fmt.Sprintf("%s[%d]", mangled, idx))
				idx++
			}
			if !e.accept(COMMA) {
				break
			}
		}
		e.accept(RBRACE)
		e.accept(SEMICOLON)
		e.syms.Define(mangled, e.here())
		return nil
	}

	if e.accept(ASSIGN) {
		if err := e.expression(0); err != nil {
			return err
		}
		e.emitStore(mangled)
		e.accept(SEMICOLON)
		e.syms.Define(mangled, e.here())
		return nil
	}

	e.accept(SEMICOLON)
	e.emitPushInt(0)
	e.emitStore(mangled)
	e.syms.Define(mangled, e.here())
	return nil
}

// ---- blocks & statements ----

func (e *Emitter) block() error {
	if e.accept(INDENT) {
		for e.cur().Type != DEDENT && e.cur().Type != EOF {
			if err := e.topLevel(); err != nil {
				return err
			}
		}
		e.accept(DEDENT)
		return nil
	}
	if e.accept(LBRACE) {
		for e.cur().Type != RBRACE && e.cur().Type != EOF {
			if err := e.topLevel(); err != nil {
				return err
			}
		}
		e.accept(RBRACE)
		return nil
	}
	return e.topLevel()
}

func (e *Emitter) statement() error {
	if e.cur().Type != KEYWORD {
		return e.exprOrDeclStatement()
	}

	switch e.cur().Text {
	case "if":
		return e.ifStatement()
	case "while":
		return e.whileStatement()
	case "for":
		return e.forStatement()
	case "return":
		e.advance()
		if e.cur().Type != SEMICOLON && e.cur().Type != DEDENT && e.cur().Type != INDENT && e.cur().Type != EOF {
			if err := e.expression(0); err != nil {
				return err
			}
		} else {
			e.emitPushInt(0)
		}
		e.accept(SEMICOLON)
		e.emitOp(OpRet)
		return nil
	case "yield":
		e.advance()
		if e.cur().Type != SEMICOLON {
			if err := e.expression(0); err != nil {
				return err
			}
		}
		e.accept(SEMICOLON)
		return nil
	case "raise", "throw":
		e.advance()
		if e.cur().Type != SEMICOLON {
			if err := e.expression(0); err != nil {
				return err
			}
		} else {
			e.emitPushInt(0)
		}
		e.accept(SEMICOLON)
		e.emitOp(OpRaise)
		return nil
	case "try":
		return e.tryStatement()
	case "pass":
		e.advance()
		e.accept(SEMICOLON)
		return nil
	case "del", "global", "nonlocal":
		e.advance()
		e.skipToSemicolonOrNewline()
		return nil
	case "with":
		e.advance()
		for e.cur().Type != COLON && e.cur().Type != EOF {
			e.advance()
		}
		e.accept(COLON)
		return e.block()
	case "assert":
		return e.assertStatement()
	case "break":
		e.advance()
		e.accept(SEMICOLON)
		if len(e.loopStack) > 0 {
			top := &e.loopStack[len(e.loopStack)-1]
			top.breakPatches = append(top.breakPatches, e.emitJumpPlaceholder(OpJmp))
		}
		return nil
	case "continue":
		e.advance()
		e.accept(SEMICOLON)
		if len(e.loopStack) > 0 {
			top := &e.loopStack[len(e.loopStack)-1]
			top.continuePatches = append(top.continuePatches, e.emitJumpPlaceholder(OpJmp))
		}
		return nil
	case "true", "false", "True", "False", "None", "nullptr":
		return e.exprOrDeclStatement()
	default:
		// switch/case/default/do/lambda/async/await/match and anything else
		// not handled above: best-effort skip, consuming a trailing block if
		// one follows a colon, matching the original compiler's catch-all.
		e.advance()
		if e.cur().Type == COLON {
			e.advance()
			return e.block()
		}
		e.skipToSemicolonOrNewline()
		return nil
	}
}

func (e *Emitter) exprOrDeclStatement() error {
	if (e.cur().Type == KEYWORD && typeSpecifiers[e.cur().Text]) ||
		(e.cur().Type == IDENTIFIER && e.at(1).Type == IDENTIFIER) {
		return e.declaration()
	}
	if err := e.expression(0); err != nil {
		return err
	}
	e.accept(SEMICOLON)
	return nil
}

func (e *Emitter) ifStatement() error {
	e.advance() // if
	e.accept(LPAREN)
	if err := e.expression(0); err != nil {
		return err
	}
	e.accept(RPAREN)
	e.accept(COLON)

	elseJump := e.emitJumpPlaceholder(OpJz)
	if err := e.block(); err != nil {
		return err
	}
	endJump := e.emitJumpPlaceholder(OpJmp)
	e.patchJump(elseJump, e.here())

	if e.isKeyword("elif") {
		e.toks[e.pos] = Token{Type: KEYWORD, Text: "if", Line: e.cur().Line}
		if err := e.ifStatement(); err != nil {
			return err
		}
	} else if e.acceptKeyword("else") {
		e.accept(COLON)
		if err := e.block(); err != nil {
			return err
		}
	}
	e.patchJump(endJump, e.here())
	return nil
}

func (e *Emitter) whileStatement() error {
	e.advance() // while
	top := e.here()
	e.accept(LPAREN)
	if err := e.expression(0); err != nil {
		return err
	}
	e.accept(RPAREN)
	e.accept(COLON)

	exitJump := e.emitJumpPlaceholder(OpJz)
	e.loopStack = append(e.loopStack, loopLabels{})
	if err := e.block(); err != nil {
		return err
	}
	loop := e.loopStack[len(e.loopStack)-1]
	e.loopStack = e.loopStack[:len(e.loopStack)-1]

	for _, p := range loop.continuePatches {
		e.patchJump(p, top)
	}
	e.emitOp(OpJmp)
	e.emitU32(uint32(top))
	e.patchJump(exitJump, e.here())
	for _, p := range loop.breakPatches {
		e.patchJump(p, e.here())
	}
	return nil
}

// forStatement handles "for x in iterable:" using FOR_ITER, which the
// target VM expects to leave a fresh value on the stack each iteration and
// to jump to its own 4-byte operand when exhausted.
func (e *Emitter) forStatement() error {
	e.advance() // for
	e.accept(LPAREN)
	varName := ""
	if e.cur().Type == IDENTIFIER {
		varName = e.advance().Text
	}
	e.acceptKeyword("in")
	if err := e.expression(0); err != nil {
		return err
	}
	e.accept(RPAREN)
	e.accept(COLON)

	top := e.here()
	exitJump := e.emitJumpPlaceholder(OpForIter)
	if varName != "" {
		e.emitStore(e.syms.Mangle(varName))
	}

	e.loopStack = append(e.loopStack, loopLabels{})
	if err := e.block(); err != nil {
		return err
	}
	loop := e.loopStack[len(e.loopStack)-1]
	e.loopStack = e.loopStack[:len(e.loopStack)-1]

	for _, p := range loop.continuePatches {
		e.patchJump(p, top)
	}
	e.emitOp(OpJmp)
	e.emitU32(uint32(top))
	e.patchJump(exitJump, e.here())
	for _, p := range loop.breakPatches {
		e.patchJump(p, e.here())
	}
	return nil
}

func (e *Emitter) tryStatement() error {
	e.advance() // try
	e.accept(COLON)
	enterPatch := e.emitJumpPlaceholder(OpTryEnter)
	if err := e.block(); err != nil {
		return err
	}
	e.emitOp(OpTryExit)
	skip := e.emitJumpPlaceholder(OpJmp)
	e.patchJump(enterPatch, e.here())

	for e.isKeyword("except") || e.isKeyword("catch") {
		e.advance()
		if e.cur().Type != COLON {
			e.skipToSemicolonOrNewline()
		} else {
			e.advance()
		}
		if err := e.block(); err != nil {
			return err
		}
	}
	if e.acceptKeyword("finally") {
		e.accept(COLON)
		if err := e.block(); err != nil {
			return err
		}
	}
	e.patchJump(skip, e.here())
	return nil
}

func (e *Emitter) assertStatement() error {
	e.advance() // assert
	if err := e.expression(0); err != nil {
		return err
	}
	e.accept(SEMICOLON)
	ok := e.emitJumpPlaceholder(OpJz)
	skip := e.emitJumpPlaceholder(OpJmp)
	e.patchJump(ok, e.here())
	e.emitPushInt(1)
	e.emitSyscall(SysAbort)
	e.patchJump(skip, e.here())
	return nil
}

// ---- expressions ----

// precedence mirrors the original compiler's table: 0 is the loosest,
// 10 the tightest (* / %). Walrus is not a binary operator here: it is
// handled directly in identifierExpr, since its left side must be a plain
// name.
func binaryPrecedence(tt TokenType) int {
	switch tt {
	case OR_LOGICAL:
		return 1
	case AND_LOGICAL:
		return 2
	case PIPE:
		return 3
	case CARET:
		return 4
	case AMP:
		return 5
	case EQ, NOT_EQ:
		return 6
	case LESS, GREATER, LESS_EQ, GREATER_EQ:
		return 7
	case SHL, SHR:
		return 8
	case PLUS, MINUS:
		return 9
	case STAR, SLASH, PERCENT:
		return 10
	default:
		return -1
	}
}

func binaryOp(tt TokenType) Op {
	switch tt {
	case PLUS:
		return OpAdd
	case MINUS:
		return OpSub
	case STAR:
		return OpMul
	case SLASH:
		return OpDiv
	case PERCENT:
		return OpMod
	case AMP:
		return OpBitAnd
	case PIPE:
		return OpBitOr
	case CARET:
		return OpBitXor
	case SHL:
		return OpShl
	case SHR:
		return OpShr
	case EQ:
		return OpCmpEq
	case NOT_EQ:
		return OpCmpNe
	case LESS:
		return OpCmpLt
	case GREATER:
		return OpCmpGt
	case LESS_EQ:
		return OpCmpLe
	case GREATER_EQ:
		return OpCmpGe
	case AND_LOGICAL:
		return OpLogAnd
	case OR_LOGICAL:
		return OpLogOr
	default:
		return OpHalt
	}
}

func (e *Emitter) expression(minPrec int) error {
	if err := e.unary(); err != nil {
		return err
	}
	for {
		prec := binaryPrecedence(e.cur().Type)
		if prec < minPrec || prec < 0 {
			return nil
		}
		opTok := e.advance()
		if err := e.expression(prec + 1); err != nil {
			return err
		}
		e.emitBinaryOp(binaryOp(opTok.Type))
	}
}

func (e *Emitter) unary() error {
	switch e.cur().Type {
	case MINUS:
		e.advance()
		if err := e.unaryOperand(); err != nil {
			return err
		}
		e.emitPushInt(-1)
		e.emitBinaryOp(OpMul)
		return nil
	case NOT:
		e.advance()
		if err := e.unaryOperand(); err != nil {
			return err
		}
		e.emitOp(OpLogNot)
		return nil
	case TILDE:
		e.advance()
		if err := e.unaryOperand(); err != nil {
			return err
		}
		e.emitOp(OpBitNot)
		return nil
	case STAR:
		e.advance()
		if err := e.unaryOperand(); err != nil {
			return err
		}
		e.emitOp(OpReadAddr)
		e.emit(4)
		return nil
	case AMP:
		e.advance()
		return e.unaryOperand() // address-of is a pass-through, matching original
	}
	return e.primary()
}

func (e *Emitter) unaryOperand() error { return e.unary() }

func (e *Emitter) primary() error {
	tok := e.cur()

	switch tok.Type {
	case LPAREN:
		e.advance()
		if err := e.expression(0); err != nil {
			return err
		}
		e.accept(RPAREN)
		return nil
	case INTEGER:
		e.advance()
		v, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(tok.Text, "0x"), "0X"), hexOrDec(tok.Text), 64)
		if err != nil {
			v = 0 // malformed literal: emit zero rather than aborting the compile
		}
		e.emitPushInt(v)
		return nil
	case STRING:
		e.advance()
		e.emitPushStr(tok.Text)
		return nil
	case FSTRING_PART:
		return e.fstringRun()
	case LBRACKET:
		return e.listLiteral()
	case LBRACE:
		return e.dictLiteral()
	case IDENTIFIER:
		return e.identifierExpr()
	case KEYWORD:
		switch tok.Text {
		case "true", "True":
			e.advance()
			e.emitPushInt(1)
			return nil
		case "false", "False", "None":
			e.advance()
			e.emitPushInt(0)
			return nil
		case "nullptr":
			e.advance()
			e.emitPushInt(0)
			return nil
		case "sizeof":
			e.advance()
			paren := e.accept(LPAREN)
			name := e.typeName()
			if paren {
				e.accept(RPAREN)
			}
			e.emitPushInt(int64(typeSize(name)))
			return nil
		default:
			return e.identifierExpr()
		}
	}

	e.advance()
	e.emitPushInt(0)
	return nil
}

func hexOrDec(text string) int {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return 16
	}
	return 10
}

// fstringRun consumes a flat FSTRING_PART / LBRACE_EXP ... RBRACE_EXP /
// FSTRING_PART run (as produced by the lexer) and emits it as a left fold of
// string concatenation: each interpolated expression is coerced through the
// str() syscall before concatenation.
func (e *Emitter) fstringRun() error {
	first := true
	for {
		switch e.cur().Type {
		case FSTRING_PART:
			e.emitPushStr(e.advance().Text)
		case LBRACE_EXP:
			e.advance()
			if err := e.expression(0); err != nil {
				return err
			}
			e.emitSyscall(SysStr)
			if !e.accept(RBRACE_EXP) {
				return fmt.Errorf("unterminated f-string interpolation at line %d", e.cur().Line)
			}
		default:
			if first {
				e.emitPushStr("")
			}
			return nil
		}
		if !first {
			e.emitOp(OpAdd)
		}
		first = false
		if e.cur().Type != FSTRING_PART && e.cur().Type != LBRACE_EXP {
			return nil
		}
	}
}

func (e *Emitter) listLiteral() error {
	e.advance() // [
	e.emitOp(OpListNew)
	for e.cur().Type != RBRACKET && e.cur().Type != EOF {
		if err := e.expression(0); err != nil {
			return err
		}
		e.emitOp(OpListAppend)
		if !e.accept(COMMA) {
			break
		}
	}
	e.accept(RBRACKET)
	return nil
}

func (e *Emitter) dictLiteral() error {
	e.advance() // {
	e.emitOp(OpDictNew)
	for e.cur().Type != RBRACE && e.cur().Type != EOF {
		if err := e.expression(0); err != nil {
			return err
		}
		e.accept(COLON)
		if err := e.expression(0); err != nil {
			return err
		}
		e.emitOp(OpDictSet)
		if !e.accept(COMMA) {
			break
		}
	}
	e.accept(RBRACE)
	return nil
}

// identifierExpr handles the dotted/arrow-accumulated name, then dispatches
// on what follows: a call (function, intrinsic, or suffix method), an
// index, an assignment, or a plain load.
func (e *Emitter) identifierExpr() error {
	name := e.advance().Text
	for e.cur().Type == DOT || e.cur().Type == ARROW {
		e.advance()
		name += "." + e.advance().Text
	}

	if dotted, ok := dottedConstants[name]; ok {
		e.emitSyscall(dotted)
		return nil
	}

	if e.cur().Type == LPAREN {
		return e.callExpr(name)
	}
	if e.cur().Type == LBRACKET {
		e.advance()
		if err := e.expression(0); err != nil {
			return err
		}
		e.accept(RBRACKET)
		if e.accept(ASSIGN) {
			if err := e.expression(0); err != nil {
				return err
			}
			e.emitOp(OpWriteAddr)
			e.emit(4)
			return nil
		}
		e.emitOp(OpReadAddr)
		e.emit(4)
		return nil
	}
	if e.accept(ASSIGN) {
		if err := e.expression(0); err != nil {
			return err
		}
		e.emitStore(e.resolveName(name))
		return nil
	}
	if e.accept(WALRUS) {
		if err := e.expression(0); err != nil {
			return err
		}
		mangled := e.resolveName(name)
		e.emitStore(mangled)
		e.emitLoad(mangled)
		return nil
	}

	e.emitLoad(e.resolveName(name))
	return nil
}

// resolveName mangles a plain (non-dotted) identifier; a dotted name is
// assumed to already be fully qualified and is used verbatim, matching the
// original compiler's behavior.
func (e *Emitter) resolveName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return e.syms.Mangle(name)
}

func (e *Emitter) callExpr(name string) error {
	e.advance() // (
	var args []func() error
	for e.cur().Type != RPAREN && e.cur().Type != EOF {
		args = append(args, func() error { return nil })
		start := e.pos
		depth := 0
		for {
			if e.cur().Type == EOF {
				break
			}
			if depth == 0 && (e.cur().Type == COMMA || e.cur().Type == RPAREN) {
				break
			}
			switch e.cur().Type {
			case LPAREN, LBRACKET, LBRACE:
				depth++
			case RPAREN, RBRACKET, RBRACE:
				depth--
			}
			e.advance()
		}
		end := e.pos
		argToks := append(append([]Token{}, e.toks[start:end]...), Token{Type: EOF})
		args[len(args)-1] = func() error {
			sub := NewEmitter(argToks, e.syms)
			sub.out = e.out
			if err := sub.expression(0); err != nil {
				return err
			}
			e.out = sub.out
			return nil
		}
		if !e.accept(COMMA) {
			break
		}
	}
	e.accept(RPAREN)

	if name == "Console.WriteLine" {
		for _, a := range args {
			if err := a(); err != nil {
				return err
			}
		}
		e.emitSyscall(SysPrintf)
		e.emitPushStr("\n")
		e.emitPushInt(1)
		e.emitSyscall(SysPrintf)
		return nil
	}

	if id, ok := noCountSyscalls[name]; ok {
		for _, a := range args {
			if err := a(); err != nil {
				return err
			}
		}
		e.emitSyscall(id)
		return nil
	}

	if id, ok := callSyscalls[name]; ok {
		for _, a := range args {
			if err := a(); err != nil {
				return err
			}
		}
		e.emitPushInt(int64(len(args)))
		e.emitSyscall(id)
		return nil
	}

	for _, m := range methodSyscalls {
		if strings.HasSuffix(name, m.suffix) {
			receiver := strings.TrimSuffix(name, m.suffix)
			e.emitLoad(e.resolveName(receiver))
			for _, a := range args {
				if err := a(); err != nil {
					return err
				}
			}
			e.emitPushInt(int64(len(args)))
			e.emitSyscall(m.id)
			return nil
		}
	}

	for _, a := range args {
		if err := a(); err != nil {
			return err
		}
	}
	e.emitOp(OpCall)
	e.emitNameOperand(e.resolveName(name))
	return nil
}
