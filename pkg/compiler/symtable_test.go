package compiler

import "testing"

func TestSymbolTableMangling(t *testing.T) {
	s := NewSymbolTable()
	if got := s.Mangle("f"); got != "f" {
		t.Errorf("top-level Mangle(f) = %q, want %q", got, "f")
	}
	s.PushModule("shapes")
	if got := s.Mangle("area"); got != "shapes.area" {
		t.Errorf("Mangle(area) inside module shapes = %q, want %q", got, "shapes.area")
	}
	s.PushModule("circle")
	if got := s.Mangle("radius"); got != "shapes.circle.radius" {
		t.Errorf("Mangle(radius) = %q, want %q", got, "shapes.circle.radius")
	}
	s.PopModule()
	if got := s.Mangle("area"); got != "shapes.area" {
		t.Errorf("after PopModule, Mangle(area) = %q, want %q", got, "shapes.area")
	}
	s.PopModule()
	if got := s.Mangle("f"); got != "f" {
		t.Errorf("after final PopModule, Mangle(f) = %q, want %q", got, "f")
	}
}

func TestSymbolTableDefineAndLookup(t *testing.T) {
	s := NewSymbolTable()
	if _, ok := s.Lookup("x"); ok {
		t.Fatalf("Lookup on undefined name should fail")
	}
	s.Define("x", 10)
	off, ok := s.Lookup("x")
	if !ok || off != 10 {
		t.Errorf("Lookup(x) = (%d, %v), want (10, true)", off, ok)
	}
	s.Define("x", 20)
	off, ok = s.Lookup("x")
	if !ok || off != 20 {
		t.Errorf("redefinition should overwrite offset, got (%d, %v)", off, ok)
	}
}

func TestSymbolTablePopModuleWithoutPushIsNoOp(t *testing.T) {
	s := NewSymbolTable()
	s.PopModule()
	if got := s.Mangle("x"); got != "x" {
		t.Errorf("unbalanced PopModule should be a no-op, got Mangle(x) = %q", got)
	}
}
