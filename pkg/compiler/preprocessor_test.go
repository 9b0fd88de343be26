package compiler

import (
	"strings"
	"testing"
)

func TestPreprocessDefineObjectLike(t *testing.T) {
	src := "#define SIZE 10\nint x = SIZE;\n"
	out, err := Preprocess(src, ".", nil)
	if err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	want := "int x = 10;"
	if !strings.Contains(out, want) {
		t.Errorf("Preprocess(%q) = %q, want it to contain %q", src, out, want)
	}
}

func TestPreprocessDefineFunctionLike(t *testing.T) {
	src := "#define ADD(a,b) a+b\nint x = ADD(1,2);\n"
	out, err := Preprocess(src, ".", nil)
	if err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	want := "int x = 1+2;"
	if !strings.Contains(out, want) {
		t.Errorf("Preprocess(%q) = %q, want it to contain %q", src, out, want)
	}
}

func TestPreprocessDefineSkipsStringLiterals(t *testing.T) {
	src := "#define SIZE 10\nprintf(\"SIZE\");\n"
	out, err := Preprocess(src, ".", nil)
	if err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	if !strings.Contains(out, `"SIZE"`) {
		t.Errorf("Preprocess should not expand macros inside string literals, got %q", out)
	}
}

func TestPreprocessUnresolvedImportSilentlyDropped(t *testing.T) {
	src := "import some_module_that_does_not_exist_anywhere\nint x = 1;\n"
	out, err := Preprocess(src, ".", nil)
	if err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	if strings.Contains(out, "import") {
		t.Errorf("unresolved import should be silently dropped, got %q", out)
	}
	if !strings.Contains(out, "int x = 1;") {
		t.Errorf("rest of file should be preserved, got %q", out)
	}
}

func TestPreprocessStdlibElision(t *testing.T) {
	src := "import math\n#include <vector>\nint x = 1;\n"
	out, err := Preprocess(src, ".", nil)
	if err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	if strings.Contains(out, "__module__ math") {
		t.Errorf("stdlib import should be elided, not inlined, got %q", out)
	}
}
