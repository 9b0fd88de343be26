package compiler

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func compileSrc(t *testing.T, src string, pythonMode bool) *Result {
	t.Helper()
	result, err := Compile(src, ".", Options{PythonMode: pythonMode})
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return result
}

func TestConstantFoldingAddition(t *testing.T) {
	result := compileSrc(t, "int x = 2 + 3 * 4;", false)
	body := result.Artifact[len(casmMagic):]

	want := []byte{byte(OpPushInt)}
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], 14)
	want = append(want, n[:]...)
	want = append(want, byte(OpStore))

	if !bytes.Contains(body, want) {
		t.Errorf("expected folded PUSH_INT 14; STORE sequence, got %x", body)
	}
	if bytes.Contains(body, []byte{byte(OpAdd)}) {
		t.Errorf("expected ADD to be folded away, but found one in %x", body)
	}
}

func TestConstantFoldingDisabledForDivideByZero(t *testing.T) {
	result := compileSrc(t, "int x = 10 / 0;", false)
	body := result.Artifact[len(casmMagic):]
	if !bytes.Contains(body, []byte{byte(OpDiv)}) {
		t.Errorf("division by literal zero must not be folded away, got %x", body)
	}
}

func TestFStringInterpolationEmitsStrAndConcat(t *testing.T) {
	result := compileSrc(t, `int x = 0; string s = f"hi {1+2}";`, false)
	body := result.Artifact[len(casmMagic):]

	sysSeq := []byte{byte(OpSyscall), byte(SysStr)}
	if !bytes.Contains(body, sysSeq) {
		t.Errorf("expected a str() syscall for the interpolated expression, got %x", body)
	}
	if !bytes.Contains(body, []byte{byte(OpAdd)}) {
		t.Errorf("expected string concatenation ADD, got %x", body)
	}
}

func TestFunctionDeclarationEntersSymbolTable(t *testing.T) {
	result := compileSrc(t, "def f():\n    pass\nf()\n", true)
	if _, ok := result.Symbols.Lookup("f"); !ok {
		t.Fatalf("expected symbol table to contain 'f'")
	}
	body := result.Artifact[len(casmMagic):]
	if body[len(body)-1] != byte(OpHalt) {
		t.Errorf("expected final opcode to be HALT, got %x", body[len(body)-1])
	}
}

func TestWalrusStoresAndReloads(t *testing.T) {
	result := compileSrc(t, "int y = (x := 5) + 1;", false)
	body := result.Artifact[len(casmMagic):]

	if bytes.Contains(body, []byte{byte(OpHalt), byte(OpHalt)}) {
		t.Fatalf("walrus must not emit a stray HALT, got %x", body)
	}
	storeIdx := bytes.IndexByte(body, byte(OpStore))
	loadIdx := bytes.IndexByte(body, byte(OpLoad))
	if storeIdx < 0 || loadIdx < 0 || loadIdx < storeIdx {
		t.Errorf("expected a STORE followed by a LOAD for the walrus target, got %x", body)
	}
}

func TestMethodCallPushesActualArgumentCount(t *testing.T) {
	result := compileSrc(t, "items.push_back(1);", false)
	body := result.Artifact[len(casmMagic):]

	want := []byte{byte(OpPushInt), 0, 0, 0, 1, byte(OpSyscall), byte(SysPushBack)}
	if !bytes.Contains(body, want) {
		t.Errorf("expected argument count 1 (not the suffix length) pushed before the syscall, got %x", body)
	}
}

func TestCallSyscallPushesArgumentCount(t *testing.T) {
	result := compileSrc(t, `len("hi");`, false)
	body := result.Artifact[len(casmMagic):]

	want := []byte{byte(OpPushInt), 0, 0, 0, 1, byte(OpSyscall), byte(SysLen)}
	if !bytes.Contains(body, want) {
		t.Errorf("expected len() to push its argument count before the syscall, got %x", body)
	}
}

func TestImportWithNoFileOnDiskIsSilentlyDropped(t *testing.T) {
	src := "import math\nint x = 1;\n"
	if _, err := Compile(src, ".", Options{PythonMode: false}); err != nil {
		t.Fatalf("expected no error for an unresolvable stdlib import, got %v", err)
	}
}

// TestIfDedentTargetsFirstOpcodeAfterBlock exercises the Python-mode
// scenario where dedenting out of an if-body must land the JZ target
// exactly on the first opcode of the statement that follows, not one past
// it or one before.
func TestIfDedentTargetsFirstOpcodeAfterBlock(t *testing.T) {
	src := "if (x == 1):\n    y = 2\nz = 3\n"
	toks, err := Lex(src, true)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	syms := NewSymbolTable()
	body, _, err := Emit(toks, syms)
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}

	jzOffset := bytes.IndexByte(body, byte(OpJz))
	if jzOffset < 0 {
		t.Fatalf("expected a JZ opcode in %x", body)
	}
	target := binary.BigEndian.Uint32(body[jzOffset+1 : jzOffset+5])
	if int(target) >= len(body) {
		t.Fatalf("JZ target %d out of range (len %d)", target, len(body))
	}
	// The byte at the JZ target must be the start of "z = 3"'s emission:
	// a PUSH_INT for the literal 3, since "z = 3" compiles to
	// PUSH_INT 3; STORE z.
	if Op(body[target]) != OpPushInt {
		t.Errorf("JZ target byte = 0x%02X, want PUSH_INT (0x%02X)", body[target], OpPushInt)
	}
}
